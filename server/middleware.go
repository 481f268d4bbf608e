package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const sessionCookieName = "cvdrop_session"

// RequireAdmin gates administrative routes. It allows the request through
// only when the session is authenticated; everything else is redirected to
// the login form before any storage work happens.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, session, ok := s.sessionFromRequest(r)
		if !ok || !session.Authenticated {
			s.audit.logFailure(AuditListingDenied, r, "not authenticated")
			http.Redirect(w, r, "/admin-login", http.StatusSeeOther)
			return
		}
		session.LastAccessedAt = time.Now()
		s.sessions.Put(token, session)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sessionFromRequest(r *http.Request) (string, Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", Session{}, false
	}
	session, ok := s.sessions.Get(cookie.Value)
	if !ok {
		return "", Session{}, false
	}
	return cookie.Value, session, true
}

// ensureSession returns the request's session, creating a fresh anonymous
// one (and setting its cookie) when none exists.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, Session) {
	if token, session, ok := s.sessionFromRequest(r); ok {
		return token, session
	}
	token := uuid.NewString()
	session := Session{
		ExpiresAt:      time.Now().Add(s.sessionTTL),
		LastAccessedAt: time.Now(),
	}
	s.sessions.Put(token, session)
	s.writeSessionCookie(w, r, token, session.ExpiresAt)
	return token, session
}

func (s *Server) writeSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
