// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig is where everything specific to RoomShare lives: where the
// expense backend is, how the session cookie is signed, and whether audit
// events are kept in MongoDB.
type AppConfig struct {
	// Expense backend
	APIBaseURL string        // e.g. http://localhost:8080/api
	APITimeout time.Duration // per-call ceiling on the shared HTTP client

	// Session cookie
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: roomshare-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime when the token carries no expiry

	// CSRF protection; blank derives a key from SessionKey
	CSRFKey string

	// MongoDB audit store; a blank URI disables it
	MongoURI      string
	MongoDatabase string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogGroup string

	// How long audit events are kept in MongoDB; 0 keeps them forever
	AuditRetention time.Duration

	// Throttling of login, signup and password forms
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Largest accepted proof-of-purchase upload, in MiB
	MaxUploadMB int
}

// AuditEnabled reports whether audit events go to MongoDB.
func (c AppConfig) AuditEnabled() bool {
	return c.MongoURI != ""
}
