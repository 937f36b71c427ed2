// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"
	"sync"

	dispatchjobstore "github.com/dalemusser/campushub/internal/app/store/dispatchjobs"
	eventstore "github.com/dalemusser/campushub/internal/app/store/events"
	groupstore "github.com/dalemusser/campushub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/campushub/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/campushub/internal/app/store/notifications"
	participantstore "github.com/dalemusser/campushub/internal/app/store/participants"
	userstore "github.com/dalemusser/campushub/internal/app/store/users"
	"github.com/dalemusser/campushub/internal/app/system/notify"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"github.com/dalemusser/campushub/internal/app/system/tasks"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/app/system/workers"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Background pieces that outlive their hook; Shutdown stops them.
var (
	bgMu           sync.Mutex
	runner         *workers.Runner
	triggerLimiter *ratelimit.Limiter
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("tiers", n), zap.Any("timeouts", timeouts.Current()))
	}

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			logger.Error("superadmin bootstrap failed", zap.Error(err))
			return err
		}
	}

	if !appCfg.DispatchWorker {
		logger.Info("dispatch worker disabled in this process")
		return nil
	}

	db := deps.CampusHubMongoDatabase
	r := workers.NewRunner(logger, dispatchJobs(db, appCfg, logger)...)
	r.Start()

	bgMu.Lock()
	runner = r
	bgMu.Unlock()
	return nil
}

// newDispatcher builds the fan-out dispatcher over the Mongo stores.
func newDispatcher(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *notify.Dispatcher {
	return notify.New(notify.Stores{
		Users:         userstore.New(db),
		Members:       membershipstore.New(db),
		Events:        eventstore.New(db),
		Groups:        groupstore.New(db),
		Participants:  participantstore.New(db),
		Notifications: notificationstore.New(db),
	}, notify.Config{
		Concurrency: appCfg.FanoutConcurrency,
		PageSize:    appCfg.AudiencePageSize,
	}, logger)
}

// dispatchJobs returns the queue drain and the exhausted-job sweep.
func dispatchJobs(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) []tasks.Job {
	q := dispatchjobstore.New(db)
	d := newDispatcher(db, appCfg, logger)
	return []tasks.Job{
		tasks.DispatchDrainJob(q, d, tasks.DispatchConfig{
			Interval:    appCfg.DispatchPollInterval,
			Lease:       appCfg.DispatchLease,
			MaxAttempts: appCfg.DispatchMaxAttempts,
			Batch:       appCfg.DispatchBatch,
		}, logger),
		tasks.DispatchSweepJob(q, appCfg.DispatchMaxAttempts, logger),
	}
}

// ensureSuperAdmin makes sure the user with email holds the superadmin role,
// creating the account if it does not exist.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	users := userstore.New(deps.CampusHubMongoDatabase)
	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		first, _, _ := strings.Cut(email, "@")
		created, err := users.Create(ctx, models.User{
			FirstName: first,
			LastName:  "Administrator",
			Email:     email,
			Role:      models.RoleSuperAdmin,
		})
		if err != nil {
			return err
		}
		logger.Info("superadmin created", zap.String("email", created.Email), zap.String("user_id", created.ID.Hex()))
		return nil
	case err != nil:
		return err
	}

	if u.Role == models.RoleSuperAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		return err
	}
	logger.Info("user promoted to superadmin", zap.String("email", u.Email), zap.String("previous_role", u.Role))
	return nil
}
