// Package server implements the HTTP surface of cvdrop: the upload
// pipeline, the session-gated admin listing, and the OAuth login glue.
package server

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/cvdrop/identity"
	"github.com/jmcleod/cvdrop/storage"
	"github.com/jmcleod/cvdrop/web"
)

const defaultSessionTTL = 24 * time.Hour

// Server holds the dependencies needed by the HTTP handlers.
type Server struct {
	store      storage.Store
	sessions   SessionStore
	admin      *AdminCredential
	identity   identity.Delegate
	pages      *web.Pages
	audit      *auditLogger
	limiter    *passwordRateLimiter
	sessionTTL time.Duration
}

// Option configures the Server instance.
type Option func(*Server)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.audit = newAuditLogger(logger)
	}
}

// WithIdentity wires the OAuth identity delegate. Without it the login
// routes render a "not configured" message instead of redirecting.
func WithIdentity(delegate identity.Delegate) Option {
	return func(s *Server) {
		s.identity = delegate
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(s *Server) {
		s.sessions = store
	}
}

// WithSessionTTL sets the absolute session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// New creates a new Server instance.
func New(store storage.Store, admin *AdminCredential, opts ...Option) (*Server, error) {
	pages, err := web.Load()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:      store,
		admin:      admin,
		pages:      pages,
		limiter:    newPasswordRateLimiter(),
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = NewMemorySessionStore(0)
	}
	if s.audit == nil {
		s.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return s, nil
}

// Router returns a chi.Router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Get("/", s.Landing)
	r.Get("/auth/login", s.AuthLogin)
	r.Get("/auth/callback", s.AuthCallback)
	r.Post("/upload", s.Upload)
	r.Get("/admin-login", s.AdminLoginForm)
	r.With(s.CSRFMiddleware).Post("/admin-login", s.AdminLogin)
	r.Post("/admin-logout", s.AdminLogout)
	r.With(s.RequireAdmin).Get("/listing", s.Listing)
	r.Get("/uploads/{name}", s.ServeUpload)

	return r
}
