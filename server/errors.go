package server

import (
	"context"
	"log/slog"
	"net/http"
)

// renderPage executes a template, falling back to a plain 500 when even the
// template fails. No handler error may crash the process.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.Render(w, name, data); err != nil {
		s.audit.logger.LogAttrs(context.Background(), slog.LevelError, "render failed",
			slog.String("template", name), slog.String("error", err.Error()))
	}
}

// renderError shows the generic error page with a user-safe message.
func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	s.renderPage(w, status, "error.html", struct{ Message string }{Message: message})
}

// plainText writes a bare text response, used where the upload flow promises
// literal messages.
func plainText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}
