// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration. WAFFLE's CoreConfig
// handles ports, TLS, logging, CORS and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration. Sessions are issued by the
	// platform's sign-in service; this app only reads them.
	SessionKey    string        // Secret key for verifying session cookies
	SessionName   string        // Cookie name (default: campushub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Notification fan-out
	FanoutConcurrency int // max in-flight writes per fan-out
	AudiencePageSize  int // recipient ids read per page

	// Max fan-out triggers (new events, new posts) per user per minute
	TriggerRateLimit int

	// Dispatch queue worker
	DispatchPollInterval time.Duration
	DispatchLease        time.Duration
	DispatchMaxAttempts  int
	DispatchBatch        int
	DispatchWorker       bool // run the worker in this process

	// SuperAdmin bootstrap: promotes or creates this user on startup.
	SuperAdminEmail string
}
