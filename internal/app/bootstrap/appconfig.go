// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CLINICA_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging, CORS and
// request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey     string        // Secret key for signing session cookies (must be strong in production)
	SessionName    string        // Cookie name for sessions (default: clinica-session)
	SessionDomain  string        // Cookie domain (blank means current host)
	SessionMaxAge  time.Duration // Cookie and server-side session lifetime
	SessionBackend string        // "cookie" or "redis"

	// Redis, only used when SessionBackend is "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Public base URL, used for the OAuth redirect URL
	BaseURL string

	// Password login throttling, per client IP
	LoginRatePerMinute int
	LoginRateBurst     int

	// Initial Administrativo account, created on startup when missing
	AdminUsername string
	AdminPassword string

	// Context budgets for database work; zero keeps the built-in default
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}

// GoogleRedirectURL is the OAuth callback registered with Google.
func (c AppConfig) GoogleRedirectURL() string {
	return trimSlash(c.BaseURL) + "/api/auth/google/callback"
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
