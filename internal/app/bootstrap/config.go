// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CampusHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CAMPUSHUB_MONGO_URI, CAMPUSHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "campushub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must match the sign-in service)"},
	{Name: "session_name", Default: "campushub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	// Notification fan-out
	{Name: "fanout_concurrency", Default: 16, Desc: "Max concurrent notification writes per fan-out"},
	{Name: "audience_page_size", Default: 500, Desc: "Recipient ids read per page while resolving an audience"},

	{Name: "trigger_rate_limit", Default: 30, Desc: "Max new events/posts per user per minute"},

	// Dispatch queue
	{Name: "dispatch_worker", Default: true, Desc: "Run the dispatch worker in this process"},
	{Name: "dispatch_poll_interval", Default: "2s", Desc: "How often the dispatch queue is polled"},
	{Name: "dispatch_lease", Default: "6m", Desc: "How long a claimed dispatch job is owned before another worker may take it"},
	{Name: "dispatch_max_attempts", Default: 5, Desc: "Claims before a dispatch job is marked failed"},
	{Name: "dispatch_batch", Default: 20, Desc: "Max dispatch jobs handled per poll"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CAMPUSHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CAMPUSHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		FanoutConcurrency: appValues.Int("fanout_concurrency"),
		AudiencePageSize:  appValues.Int("audience_page_size"),
		TriggerRateLimit:  appValues.Int("trigger_rate_limit"),

		DispatchWorker:       appValues.Bool("dispatch_worker"),
		DispatchPollInterval: appValues.Duration("dispatch_poll_interval", 2*time.Second),
		DispatchLease:        appValues.Duration("dispatch_lease", 6*time.Minute),
		DispatchMaxAttempts:  appValues.Int("dispatch_max_attempts"),
		DispatchBatch:        appValues.Int("dispatch_batch"),

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}

	for _, c := range []struct {
		name string
		v    int
	}{
		{"fanout_concurrency", appCfg.FanoutConcurrency},
		{"audience_page_size", appCfg.AudiencePageSize},
		{"trigger_rate_limit", appCfg.TriggerRateLimit},
		{"dispatch_max_attempts", appCfg.DispatchMaxAttempts},
		{"dispatch_batch", appCfg.DispatchBatch},
	} {
		if c.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", c.name, c.v)
		}
	}
	if appCfg.DispatchPollInterval <= 0 || appCfg.DispatchLease <= 0 {
		return fmt.Errorf("dispatch_poll_interval and dispatch_lease must be positive")
	}

	return nil
}
