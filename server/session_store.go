package server

import (
	"time"

	"github.com/jmcleod/cvdrop/identity"
)

// SessionStore abstracts session CRUD so that sessions can be kept
// in-memory (default) or in persistent backing storage.
type SessionStore interface {
	// Get retrieves a session by token. Returns false if the session
	// does not exist, has expired, or has exceeded the idle timeout.
	Get(token string) (Session, bool)
	// Put creates or updates a session for the given token.
	Put(token string, session Session)
	// Delete removes a session by token.
	Delete(token string)
}

// Session holds the server-side state associated with one client. The
// client only ever sees the opaque token; the authenticated flag and the
// profile never leave the store.
type Session struct {
	Authenticated  bool              `json:"authenticated"`
	Profile        *identity.Profile `json:"profile,omitempty"`
	ExpiresAt      time.Time         `json:"expires_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}
