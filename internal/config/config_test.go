package config

import (
	"os"
	"testing"
)

var testEnvVars = []string{
	"PORT", "LOG_LEVEL",
	"STRAVA_CLIENT_ID", "STRAVA_CLIENT_SECRET", "STRAVA_REDIRECT_URI",
	"STRAVA_BASE_URL", "WEBHOOK_VERIFY_TOKEN",
	"STORE_TYPE", "STORE_ENCRYPTION_KEY", "FILE_STORE_DIR", "SQLITE_PATH",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"AUTH_JWT_SECRET", "HTTP_TIMEOUT",
}

func clearTestEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range testEnvVars {
		os.Unsetenv(key)
	}
}

// setRequired sets the minimum configuration Validate() demands.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "secret")
	t.Setenv("STRAVA_REDIRECT_URI", "http://localhost:8080/callback")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "verify-me")
}

func TestLoadDefaults(t *testing.T) {
	clearTestEnvVars(t)

	config := Load()

	if config.Port != "8080" {
		t.Errorf("Load() Port = %v, want %v", config.Port, "8080")
	}

	if config.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "info")
	}

	if config.StravaBaseURL != "https://www.strava.com" {
		t.Errorf("Load() StravaBaseURL = %v, want %v", config.StravaBaseURL, "https://www.strava.com")
	}

	if config.StoreType != StoreMemory {
		t.Errorf("Load() StoreType = %v, want %v", config.StoreType, StoreMemory)
	}

	if config.FileStoreDir != "./secrets" {
		t.Errorf("Load() FileStoreDir = %v, want %v", config.FileStoreDir, "./secrets")
	}

	if config.SQLitePath != "./activity_guard.db" {
		t.Errorf("Load() SQLitePath = %v, want %v", config.SQLitePath, "./activity_guard.db")
	}

	if config.RedisAddress != "localhost:6379" {
		t.Errorf("Load() RedisAddress = %v, want %v", config.RedisAddress, "localhost:6379")
	}

	if config.RedisDB != "0" {
		t.Errorf("Load() RedisDB = %v, want %v", config.RedisDB, "0")
	}

	if config.HTTPTimeout != "30s" {
		t.Errorf("Load() HTTPTimeout = %v, want %v", config.HTTPTimeout, "30s")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "all required present",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.StravaClientID = "" },
			wantErr: true,
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.StravaClientSecret = "" },
			wantErr: true,
		},
		{
			name:    "missing redirect uri",
			mutate:  func(c *Config) { c.StravaRedirectURI = "" },
			wantErr: true,
		},
		{
			name:    "missing verify token",
			mutate:  func(c *Config) { c.WebhookVerifyToken = "" },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Port = "not-a-port" },
			wantErr: true,
		},
		{
			name:    "unknown store type",
			mutate:  func(c *Config) { c.StoreType = "cassandra" },
			wantErr: true,
		},
		{
			name: "file store without encryption key",
			mutate: func(c *Config) {
				c.StoreType = StoreFile
				c.StoreEncryptionKey = ""
			},
			wantErr: true,
		},
		{
			name: "file store with encryption key",
			mutate: func(c *Config) {
				c.StoreType = StoreFile
				c.StoreEncryptionKey = "a-strong-enough-passphrase"
			},
			wantErr: false,
		},
		{
			name: "redis store with bad db number",
			mutate: func(c *Config) {
				c.StoreType = StoreRedis
				c.RedisDB = "99"
			},
			wantErr: true,
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.AuthJWTSecret = "tooshort" },
			wantErr: true,
		},
		{
			name:    "invalid http timeout",
			mutate:  func(c *Config) { c.HTTPTimeout = "soon" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnvVars(t)
			setRequired(t)

			config := Load()
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPTimeoutDuration(t *testing.T) {
	clearTestEnvVars(t)
	t.Setenv("HTTP_TIMEOUT", "5s")

	config := Load()
	if got := config.HTTPTimeoutDuration().Seconds(); got != 5 {
		t.Errorf("HTTPTimeoutDuration() = %vs, want 5s", got)
	}
}
