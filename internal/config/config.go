package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Management API
	AdminAPIURL           string
	AdminAPIToken         string
	AdminAPISigningSecret string
	AdminAPIAudience      string
	AdminAPITimeout       time.Duration

	// Console operator auth
	ConsoleJWTSecret string
	ConsoleJWTIssuer string

	// Storage
	RedisURL    string
	CacheTTL    time.Duration
	DatabaseURL string

	// Presentation
	DefaultUILocale    string
	SessionGenericName string

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled                 bool
	ReadRequestsPerMinute   int
	ReadWindowMinutes       int
	RevokeRequestsPerMinute int
	RevokeWindowMinutes     int
}

// SecurityHeadersConfig holds response security header configuration.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// ValidationConfig holds request validation limits.
type ValidationConfig struct {
	MaxRequestBodySize int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		AdminAPIURL:           getEnv("ADMIN_API_URL", ""),
		AdminAPIToken:         getEnv("ADMIN_API_TOKEN", ""),
		AdminAPISigningSecret: getEnv("ADMIN_API_SIGNING_SECRET", ""),
		AdminAPIAudience:      getEnv("ADMIN_API_AUDIENCE", "management-api"),
		AdminAPITimeout:       getEnvDuration("ADMIN_API_TIMEOUT", 10*time.Second),

		ConsoleJWTSecret: getEnv("CONSOLE_JWT_SECRET", ""),
		ConsoleJWTIssuer: getEnv("CONSOLE_JWT_ISSUER", ""),

		// Redis and Postgres are optional
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    getEnvDuration("CACHE_TTL", 5*time.Minute),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DefaultUILocale:    getEnv("DEFAULT_UI_LOCALE", "en-US"),
		SessionGenericName: getEnv("SESSION_GENERIC_NAME", "Session"),

		RateLimit: RateLimitConfig{
			Enabled:                 getEnvBool("RATE_LIMIT_ENABLED", true),
			ReadRequestsPerMinute:   getEnvInt("RATE_LIMIT_READ_REQUESTS", 120),
			ReadWindowMinutes:       getEnvInt("RATE_LIMIT_READ_WINDOW_MINUTES", 1),
			RevokeRequestsPerMinute: getEnvInt("RATE_LIMIT_REVOKE_REQUESTS", 10),
			RevokeWindowMinutes:     getEnvInt("RATE_LIMIT_REVOKE_WINDOW_MINUTES", 1),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_HEADERS_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HEADERS_HSTS_MAX_AGE", 31536000),
			FrameOptions:       getEnv("SECURITY_HEADERS_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: "nosniff",
			XSSProtection:      getEnv("SECURITY_HEADERS_XSS_PROTECTION", "1; mode=block"),
			ReferrerPolicy:     getEnv("SECURITY_HEADERS_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_HEADERS_PERMISSIONS_POLICY", ""),
		},

		Validation: ValidationConfig{
			MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64*1024)),
		},
	}

	// Validate required fields
	if cfg.AdminAPIURL == "" {
		return nil, fmt.Errorf("ADMIN_API_URL is required")
	}

	return cfg, nil
}

// ValidateServe checks settings only the HTTP console needs.
func (c *Config) ValidateServe() error {
	if c.ConsoleJWTSecret == "" {
		return fmt.Errorf("CONSOLE_JWT_SECRET is required")
	}
	return nil
}

// HasRedis returns true if a Redis cache backend is configured.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// HasDatabase returns true if the revocation audit database is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasSignedAPITokens returns true if management API tokens are minted per request.
func (c *Config) HasSignedAPITokens() bool {
	return c.AdminAPISigningSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
