// Package identity integrates the third-party OAuth2 login used to greet
// applicants. The flow is an explicit two-step protocol: BeginAuth hands out
// the provider redirect URL, CompleteAuth turns the callback code into a
// verified profile.
package identity

import (
	"context"
	"errors"
)

// ErrAuthFailed is returned when the provider rejected or denied the flow.
// Handlers surface it as a redirect with no detail leaked.
var ErrAuthFailed = errors.New("authentication failed")

// Profile is the verified identity returned by the provider.
type Profile struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Delegate abstracts the provider integration so handlers and tests don't
// depend on a live OAuth endpoint.
type Delegate interface {
	// BeginAuth returns the provider URL to redirect the browser to.
	// The state value is echoed back on the callback.
	BeginAuth(state string) string
	// CompleteAuth exchanges the callback code for a Profile.
	CompleteAuth(ctx context.Context, code string) (Profile, error)
}
