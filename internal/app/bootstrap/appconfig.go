// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig owns framework-level settings (ports, TLS, log level);
// AppConfig carries everything specific to the feedback service. The struct
// is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth callbacks
	BaseURL string // e.g. "https://feedback.example.edu" or "http://localhost:8080"

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging settings: "all", "db", "log", or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string

	// MasterAdminEmail is promoted to (or created with) the master role on
	// startup so a fresh deployment always has a user administrator.
	MasterAdminEmail string
}
