// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the dispatch worker, then tears down DB connections.
// A dispatch run interrupted here is released back to the queue.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	bgMu.Lock()
	r, lim := runner, triggerLimiter
	runner, triggerLimiter = nil, nil
	bgMu.Unlock()
	if r != nil {
		logger.Info("stopping dispatch worker")
		r.Stop()
	}
	if lim != nil {
		lim.Close()
	}

	if deps.CampusHubMongoClient != nil {
		logger.Info("disconnecting CampusHub MongoDB client")
		if err := deps.CampusHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
