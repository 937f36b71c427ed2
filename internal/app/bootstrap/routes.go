// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	dashboardfeature "github.com/dalemusser/campushub/internal/app/features/dashboard"
	eventsfeature "github.com/dalemusser/campushub/internal/app/features/events"
	groupsfeature "github.com/dalemusser/campushub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/campushub/internal/app/features/health"
	notificationsfeature "github.com/dalemusser/campushub/internal/app/features/notifications"
	userstore "github.com/dalemusser/campushub/internal/app/store/users"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// CampusHub applies session middleware and mounts the JSON feature routers:
// health, events, groups, notifications and the admin dashboard.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the user on each request so role changes and deleted accounts
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.CampusHubMongoDatabase))

	limiter := ratelimit.New(appCfg.TriggerRateLimit, time.Minute)
	bgMu.Lock()
	triggerLimiter = limiter
	bgMu.Unlock()

	return newRouter(deps, sessionMgr, limiter.Middleware, logger), nil
}

func newRouter(deps DBDeps, sessionMgr *auth.SessionManager, throttle func(http.Handler) http.Handler, logger *zap.Logger) chi.Router {
	db := deps.CampusHubMongoDatabase
	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CampusHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Events (creation queues participant + notification fan-out)
	eventsHandler := eventsfeature.NewHandler(db, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr, throttle))

	// Groups, forum membership and posts
	groupsHandler := groupsfeature.NewHandler(db, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr, throttle))

	// Inbox
	notificationsHandler := notificationsfeature.NewHandler(db, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	// Admin dashboard
	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	return r
}
