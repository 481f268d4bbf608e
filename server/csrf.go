package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	csrfCookieName = "cvdrop_csrf"
	csrfFieldName  = "csrf_token"
)

// CSRFMiddleware enforces double-submit cookie CSRF protection for the
// admin form: the token rendered into the hidden form field must match the
// cookie issued with the form.
func (s *Server) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/admin-login", http.StatusSeeOther)
			return
		}
		field := r.PostFormValue(csrfFieldName)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(field)) != 1 {
			http.Redirect(w, r, "/admin-login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// issueCSRFToken sets the CSRF double-submit cookie and returns the token
// for embedding in the form.
func (s *Server) issueCSRFToken(w http.ResponseWriter, r *http.Request) string {
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/admin-login",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// clearCSRFCookie removes the CSRF cookie after a completed login.
func clearCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    "",
		Path:     "/admin-login",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
