package server

import (
	"log/slog"
	"net/http"
	"time"
)

type adminLoginPage struct {
	CSRFToken  string
	Failed     bool
	RetryAfter string
}

// AdminLoginForm handles GET /admin-login.
func (s *Server) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	token := s.issueCSRFToken(w, r)
	s.renderPage(w, http.StatusOK, "admin_login.html", adminLoginPage{CSRFToken: token})
}

// AdminLogin handles POST /admin-login. A failed submission never changes
// session state; only a correct password flips the authenticated flag.
func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)
	if blocked, retryAfter := s.limiter.check(clientIP); blocked {
		s.audit.logFailure(AuditAdminLoginRateLimited, r, "rate limited",
			slog.String("client_ip", clientIP))
		s.renderPage(w, http.StatusTooManyRequests, "admin_login.html", adminLoginPage{
			CSRFToken:  s.issueCSRFToken(w, r),
			RetryAfter: retryAfter.Round(time.Second).String(),
		})
		return
	}

	password := r.PostFormValue("password")
	if !s.admin.Verify(password) {
		s.limiter.recordFailure(clientIP)
		s.audit.logFailure(AuditAdminLoginFailure, r, "wrong password",
			slog.String("client_ip", clientIP))
		s.renderPage(w, http.StatusUnauthorized, "admin_login.html", adminLoginPage{
			CSRFToken: s.issueCSRFToken(w, r),
			Failed:    true,
		})
		return
	}

	s.limiter.recordSuccess(clientIP)
	token, session := s.ensureSession(w, r)
	session.Authenticated = true
	session.LastAccessedAt = time.Now()
	s.sessions.Put(token, session)
	clearCSRFCookie(w, r)

	s.audit.log(AuditAdminLoginSuccess, r)
	http.Redirect(w, r, "/listing", http.StatusSeeOther)
}

// AdminLogout handles POST /admin-logout.
func (s *Server) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if token, _, ok := s.sessionFromRequest(r); ok {
		s.sessions.Delete(token)
	}
	clearSessionCookie(w, r)
	s.audit.log(AuditAdminLogout, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
