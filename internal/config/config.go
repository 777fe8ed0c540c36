// Package config provides configuration management for the activity guard
// service. It loads configuration from environment variables with sensible
// defaults and validates it so the process fails fast on missing credentials
// rather than at the first request.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Strava Configuration:
//   - STRAVA_CLIENT_ID: OAuth2 client id (required)
//   - STRAVA_CLIENT_SECRET: OAuth2 client secret (required)
//   - STRAVA_REDIRECT_URI: Callback URL registered with Strava (required)
//   - STRAVA_BASE_URL: API base URL, overridable for tests
//     (default: https://www.strava.com)
//   - WEBHOOK_VERIFY_TOKEN: Shared secret echoed during the webhook
//     subscription handshake (required)
//
// Secret Store Configuration:
//   - STORE_TYPE: Backend - "memory", "file", "redis" or "sqlite"
//     (default: memory)
//   - STORE_ENCRYPTION_KEY: Passphrase for encrypting records at rest
//     (required when STORE_TYPE=file)
//   - FILE_STORE_DIR: Directory for the encrypted-file backend
//     (default: ./secrets)
//   - SQLITE_PATH: SQLite database file path (default: ./activity_guard.db)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Security Configuration:
//   - AUTH_JWT_SECRET: When set, /authorize and /callback require a signed
//     bearer token (optional; minimum 32 characters when provided)
//
// Outbound Calls:
//   - HTTP_TIMEOUT: Timeout for calls to Strava (default: 30s)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backend names accepted in STORE_TYPE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds all configuration values for the service. All string fields
// correspond to environment variables. Load() populates it; Validate() must
// pass before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Strava configuration
	StravaClientID     string // OAuth2 client id
	StravaClientSecret string // OAuth2 client secret
	StravaRedirectURI  string // Registered callback URL
	StravaBaseURL      string // API base URL (overridable for tests)
	WebhookVerifyToken string // Shared secret for the subscription handshake

	// Secret store configuration
	StoreType          string // Backend: memory, file, redis or sqlite
	StoreEncryptionKey string // Passphrase for at-rest encryption (file backend)
	FileStoreDir       string // Directory for the encrypted-file backend
	SQLitePath         string // SQLite database file path

	// Redis configuration
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// Security configuration
	AuthJWTSecret string // Optional bearer-token secret for the authorize flow

	// Outbound calls
	HTTPTimeout string // Timeout for calls to Strava (duration string)
}

// Load creates a new Config instance with values loaded from environment
// variables. It does not validate; call Validate() on the result.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
		StravaRedirectURI:  getEnv("STRAVA_REDIRECT_URI", ""),
		StravaBaseURL:      getEnv("STRAVA_BASE_URL", "https://www.strava.com"),
		WebhookVerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),

		StoreType:          getEnv("STORE_TYPE", StoreMemory),
		StoreEncryptionKey: getEnv("STORE_ENCRYPTION_KEY", ""),
		FileStoreDir:       getEnv("FILE_STORE_DIR", "./secrets"),
		SQLitePath:         getEnv("SQLITE_PATH", "./activity_guard.db"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		HTTPTimeout: getEnv("HTTP_TIMEOUT", "30s"),
	}
}

// getEnv retrieves an environment variable value or returns a default value
// if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks that required credentials are present and all values are
// well-formed. Missing Strava credentials or webhook verify token are fatal
// at startup per the error-handling design.
func (c *Config) Validate() error {
	if c.StravaClientID == "" {
		return fmt.Errorf("STRAVA_CLIENT_ID environment variable is required")
	}
	if c.StravaClientSecret == "" {
		return fmt.Errorf("STRAVA_CLIENT_SECRET environment variable is required")
	}
	if c.StravaRedirectURI == "" {
		return fmt.Errorf("STRAVA_REDIRECT_URI environment variable is required")
	}
	if c.WebhookVerifyToken == "" {
		return fmt.Errorf("WEBHOOK_VERIFY_TOKEN environment variable is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.StoreType {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
		// Valid store types
	default:
		return fmt.Errorf("STORE_TYPE must be 'memory', 'file', 'redis' or 'sqlite'")
	}

	if c.StoreType == StoreFile {
		if c.StoreEncryptionKey == "" {
			return fmt.Errorf("STORE_ENCRYPTION_KEY is required when using the file store")
		}
		if c.FileStoreDir == "" {
			return fmt.Errorf("FILE_STORE_DIR is required when using the file store")
		}
	}

	if c.StoreType == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when using the sqlite store")
	}

	if c.StoreType == StoreRedis {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using the redis store")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.AuthJWTSecret != "" && len(c.AuthJWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters long for security")
	}

	if _, err := time.ParseDuration(c.HTTPTimeout); err != nil {
		return fmt.Errorf("HTTP_TIMEOUT must be a valid duration (e.g., '30s', '1m')")
	}

	return nil
}

// HTTPTimeoutDuration returns the parsed outbound call timeout. Validate()
// must have passed; an unparseable value falls back to 30 seconds.
func (c *Config) HTTPTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
