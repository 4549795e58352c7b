// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, timeouts); everything the
// portal itself needs lives here.
type AppConfig struct {
	// Backend selects the service adapter: "mongo" or "supabase".
	Backend string

	// MongoDB connection configuration (mongo backend)
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Supabase-style backend (GoTrue + PostgREST)
	SupabaseURL     string
	SupabaseAnonKey string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: portal-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime
	SessionIdle   time.Duration // Mongo backend: close sessions idle this long

	// Dashboard
	InteractionsLimit int           // Max interactions fetched per mount
	IdentityWait      time.Duration // How long a request waits for identity before showing the loading page
	InteractionsWait  time.Duration // Extra grace for interactions once identity resolved
	FetchTimeout      time.Duration // Per-call backend timeout
	DisplayTimezone   string        // IANA zone for rendered timestamps

	// Sign-in throttling; 0 disables
	LoginIPLimit    int
	LoginEmailLimit int

	// Mongo backend: optional account created on startup
	SeedEmail    string
	SeedPassword string
}
