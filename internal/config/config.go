// Package config handles runtime configuration for the cvdrop server,
// layering defaults, an optional TOML file, and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Backend selects where uploaded bytes are persisted.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds runtime settings for the cvdrop server.
//
// Fields:
//   - ListenPort: HTTP listen port.
//   - UploadDir: upload root for the local backend.
//   - DataDir: directory for the bbolt database (upload index, persisted sessions).
//   - AdminPassword: the single shared admin secret. Required.
//   - SessionSecret: seals persisted sessions at rest. Required when PersistSessions.
//   - SessionTTL / SessionIdleTimeout: session lifetime policy; idle timeout 0 disables.
//   - PersistSessions: keep sessions in bbolt across restarts instead of in memory.
//   - StorageBackend: "local" (default) or "s3".
//   - S3*: object storage settings for the s3 backend.
//   - LinkedIn*: OAuth2 client settings; login is disabled when unset.
type Config struct {
	ListenPort int    `toml:"listen_port"`
	UploadDir  string `toml:"upload_dir"`
	DataDir    string `toml:"data_dir"`

	AdminPassword      string        `toml:"admin_password"`
	SessionSecret      string        `toml:"session_secret"`
	SessionTTL         time.Duration `toml:"-"`
	SessionIdleTimeout time.Duration `toml:"-"`
	PersistSessions    bool          `toml:"persist_sessions"`

	StorageBackend string `toml:"storage_backend"`
	S3Bucket       string `toml:"s3_bucket"`
	S3Region       string `toml:"s3_region"`
	S3Endpoint     string `toml:"s3_endpoint"`
	S3AccessKey    string `toml:"s3_access_key"`
	S3SecretKey    string `toml:"s3_secret_key"`

	LinkedInClientID     string `toml:"linkedin_client_id"`
	LinkedInClientSecret string `toml:"linkedin_client_secret"`
	LinkedInCallbackURL  string `toml:"linkedin_callback_url"`
}

// fileConfig mirrors Config for the TOML overlay; durations are strings so
// the file can say session_ttl = "24h".
type fileConfig struct {
	Config
	SessionTTL         string `toml:"session_ttl"`
	SessionIdleTimeout string `toml:"session_idle_timeout"`
}

// LoadDefaults populates Config with development defaults. The admin
// password has no default on purpose.
func (c *Config) LoadDefaults() {
	c.ListenPort = 3000
	c.UploadDir = "uploads"
	c.DataDir = "./data"
	c.SessionTTL = 24 * time.Hour
	c.SessionIdleTimeout = 30 * time.Minute
	c.StorageBackend = BackendLocal
}

// ApplyFile overlays values from a TOML file. A missing file is an error;
// pass an empty path to skip the overlay.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	fc := fileConfig{Config: *c}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	*c = fc.Config
	if fc.SessionTTL != "" {
		d, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("parsing session_ttl: %w", err)
		}
		c.SessionTTL = d
	}
	if fc.SessionIdleTimeout != "" {
		d, err := time.ParseDuration(fc.SessionIdleTimeout)
		if err != nil {
			return fmt.Errorf("parsing session_idle_timeout: %w", err)
		}
		c.SessionIdleTimeout = d
	}
	return nil
}

// ApplyEnv overlays values from environment variables. Unset variables
// leave the current value untouched.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT: %w", err)
		}
		c.ListenPort = p
	}
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.SessionSecret, "SESSION_SECRET")
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := os.Getenv("SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SESSION_IDLE_TIMEOUT: %w", err)
		}
		c.SessionIdleTimeout = d
	}
	if v := os.Getenv("PERSIST_SESSIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing PERSIST_SESSIONS: %w", err)
		}
		c.PersistSessions = b
	}
	setString(&c.StorageBackend, "STORAGE_BACKEND")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Region, "S3_REGION")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")
	setString(&c.LinkedInClientID, "LINKEDIN_CLIENT_ID")
	setString(&c.LinkedInClientSecret, "LINKEDIN_CLIENT_SECRET")
	setString(&c.LinkedInCallbackURL, "LINKEDIN_CALLBACK_URL")
	return nil
}

// Validate checks that the configuration is runnable.
func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("admin password is required (ADMIN_PASSWORD)")
	}
	if c.PersistSessions && c.SessionSecret == "" {
		return fmt.Errorf("session secret is required when sessions are persisted (SESSION_SECRET)")
	}
	switch c.StorageBackend {
	case BackendLocal:
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is required for the s3 backend (S3_BUCKET)")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	return nil
}

// OAuthConfigured reports whether LinkedIn login can be wired.
func (c *Config) OAuthConfigured() bool {
	return c.LinkedInClientID != "" && c.LinkedInClientSecret != "" && c.LinkedInCallbackURL != ""
}

// Load builds a Config by applying defaults, then overlaying an optional
// TOML file and finally the environment.
func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.ApplyFile(filePath); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
