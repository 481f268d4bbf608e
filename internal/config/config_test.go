package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cvdrop.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, 3000, cfg.ListenPort)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, BackendLocal, cfg.StorageBackend)
	assert.Empty(t, cfg.AdminPassword, "the admin password must not default")
}

func TestApplyFileOverlay(t *testing.T) {
	path := writeConfigFile(t, `
listen_port = 8080
upload_dir = "/srv/uploads"
admin_password = "from-file"
session_ttl = "2h"
session_idle_timeout = "5m"
storage_backend = "s3"
s3_bucket = "cv-bucket"
`)

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, "/srv/uploads", cfg.UploadDir)
	assert.Equal(t, "from-file", cfg.AdminPassword)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, BackendS3, cfg.StorageBackend)
	assert.Equal(t, "cv-bucket", cfg.S3Bucket)

	// Values the file doesn't mention keep their defaults.
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestApplyFileKeepsDurationDefaults(t *testing.T) {
	path := writeConfigFile(t, `listen_port = 9000`)

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestApplyFileBadDuration(t *testing.T) {
	path := writeConfigFile(t, `session_ttl = "yesterday"`)

	var cfg Config
	cfg.LoadDefaults()
	assert.Error(t, cfg.ApplyFile(path))
}

func TestApplyFileMissing(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	assert.Error(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "nope.toml")))
	assert.NoError(t, cfg.ApplyFile(""), "empty path skips the overlay")
}

func TestApplyEnvOverlay(t *testing.T) {
	t.Setenv("PORT", "8443")
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("PERSIST_SESSIONS", "true")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LINKEDIN_CLIENT_ID", "cid")
	t.Setenv("LINKEDIN_CLIENT_SECRET", "csecret")
	t.Setenv("LINKEDIN_CALLBACK_URL", "https://cv.example/auth/callback")

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 8443, cfg.ListenPort)
	assert.Equal(t, "from-env", cfg.AdminPassword)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.PersistSessions)
	assert.True(t, cfg.OAuthConfigured())
}

func TestApplyEnvBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	var cfg Config
	cfg.LoadDefaults()
	assert.Error(t, cfg.ApplyEnv())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `admin_password = "from-file"`)
	t.Setenv("ADMIN_PASSWORD", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AdminPassword)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var cfg Config
		cfg.LoadDefaults()
		cfg.AdminPassword = "pw"
		return cfg
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.AdminPassword = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.PersistSessions = true
	assert.Error(t, cfg.Validate(), "persisted sessions need a secret")
	cfg.SessionSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.StorageBackend = BackendS3
	assert.Error(t, cfg.Validate(), "s3 backend needs a bucket")
	cfg.S3Bucket = "b"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.StorageBackend = "floppy"
	assert.Error(t, cfg.Validate())
}

func TestOAuthConfigured(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.OAuthConfigured())
	cfg.LinkedInClientID = "cid"
	cfg.LinkedInClientSecret = "csecret"
	assert.False(t, cfg.OAuthConfigured(), "callback URL is still missing")
	cfg.LinkedInCallbackURL = "https://cv.example/auth/callback"
	assert.True(t, cfg.OAuthConfigured())
}
