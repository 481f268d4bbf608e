package server

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditAdminLoginSuccess     AuditEvent = "admin_login_success"
	AuditAdminLoginFailure     AuditEvent = "admin_login_failure"
	AuditAdminLoginRateLimited AuditEvent = "admin_login_rate_limited"
	AuditAdminLogout           AuditEvent = "admin_logout"
	AuditUploadAccepted        AuditEvent = "upload_accepted"
	AuditUploadRejected        AuditEvent = "upload_rejected"
	AuditListingDenied         AuditEvent = "listing_denied"
	AuditListingServed         AuditEvent = "listing_served"
	AuditOAuthLoginSuccess     AuditEvent = "oauth_login_success"
	AuditOAuthLoginFailure     AuditEvent = "oauth_login_failure"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

// logFailure records a failed or denied action with a reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, attrs ...slog.Attr) {
	all := []slog.Attr{slog.String("reason", reason)}
	all = append(all, attrs...)
	al.log(event, r, all...)
}
