package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider stands in for both the token and userinfo endpoints.
func fakeProvider(t *testing.T, userInfoStatus int, userInfo map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("code") != "valid-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer issued-token", r.Header.Get("Authorization"))
		if userInfoStatus != http.StatusOK {
			w.WriteHeader(userInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testDelegate(provider *httptest.Server) *LinkedIn {
	l := NewLinkedIn("client-id", "client-secret", "http://localhost/auth/callback")
	l.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  provider.URL + "/authorize",
		TokenURL: provider.URL + "/token",
	}
	l.userInfoURL = provider.URL + "/userinfo"
	return l
}

func TestBeginAuth(t *testing.T) {
	l := NewLinkedIn("client-id", "client-secret", "http://localhost/auth/callback")
	u := l.BeginAuth("state-123")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "scope=openid+profile+email")
}

func TestCompleteAuth(t *testing.T) {
	provider := fakeProvider(t, http.StatusOK, map[string]string{
		"sub":     "abc123",
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"picture": "https://img.example/ada.jpg",
	})
	l := testDelegate(provider)

	profile, err := l.CompleteAuth(context.Background(), "valid-code")
	require.NoError(t, err)
	assert.Equal(t, "abc123", profile.Subject)
	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
}

func TestCompleteAuthBadCode(t *testing.T) {
	provider := fakeProvider(t, http.StatusOK, nil)
	l := testDelegate(provider)

	_, err := l.CompleteAuth(context.Background(), "stolen-code")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestCompleteAuthUserInfoRejected(t *testing.T) {
	provider := fakeProvider(t, http.StatusForbidden, nil)
	l := testDelegate(provider)

	_, err := l.CompleteAuth(context.Background(), "valid-code")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestCompleteAuthMissingSubject(t *testing.T) {
	provider := fakeProvider(t, http.StatusOK, map[string]string{
		"name": "No Subject",
	})
	l := testDelegate(provider)

	_, err := l.CompleteAuth(context.Background(), "valid-code")
	assert.ErrorIs(t, err, ErrAuthFailed)
}
