package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

const linkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"

// LinkedIn implements Delegate against LinkedIn's OpenID Connect endpoints.
type LinkedIn struct {
	oauth       oauth2.Config
	userInfoURL string
}

var _ Delegate = (*LinkedIn)(nil)

// NewLinkedIn configures the LinkedIn authorization-code flow.
func NewLinkedIn(clientID, clientSecret, callbackURL string) *LinkedIn {
	return &LinkedIn{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     linkedin.Endpoint,
		},
		userInfoURL: linkedInUserInfoURL,
	}
}

func (l *LinkedIn) BeginAuth(state string) string {
	return l.oauth.AuthCodeURL(state)
}

// CompleteAuth exchanges the code for a token and fetches the userinfo
// document. One round trip per login attempt; nothing is retried.
func (l *LinkedIn) CompleteAuth(ctx context.Context, code string) (Profile, error) {
	token, err := l.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchanging code: %w", ErrAuthFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("building userinfo request: %w", ErrAuthFailed)
	}
	resp, err := l.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetching userinfo: %w", ErrAuthFailed)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo status %d: %w", resp.StatusCode, ErrAuthFailed)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decoding userinfo: %w", ErrAuthFailed)
	}
	if profile.Subject == "" {
		return Profile{}, fmt.Errorf("userinfo missing subject: %w", ErrAuthFailed)
	}
	return profile, nil
}
