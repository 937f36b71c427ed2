// Package timeouts holds the deadlines used with context.WithTimeout across
// handlers, stores and background dispatch.
//
// Tiers:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, counts, dashboard scans
//   - Dispatch: one full fan-out run (registrar + audience + writes)
package timeouts

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultDispatch = 5 * time.Minute
)

var (
	mu       sync.RWMutex
	ping     = DefaultPing
	short    = DefaultShort
	medium   = DefaultMedium
	dispatch = DefaultDispatch
)

// Ping returns the timeout for connectivity checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list queries and aggregate scans.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Dispatch bounds a single fan-out run. Large audiences page through the
// whole user directory, so this is minutes, not seconds.
func Dispatch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return dispatch
}

// Config holds timeout overrides. Zero values keep the current setting.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Dispatch time.Duration
}

// Configure applies non-zero values from cfg. Call during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&dispatch, cfg.Dispatch)
}

func set(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, dispatch = DefaultPing, DefaultShort, DefaultMedium, DefaultDispatch
}

// ConfigureFromEnv reads CAMPUSHUB_TIMEOUT_{PING,SHORT,MEDIUM,DISPATCH} as Go
// durations ("500ms", "2m"). Invalid or non-positive values are ignored.
// Returns how many tiers were set.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, e := range []struct {
		key string
		dst *time.Duration
	}{
		{"CAMPUSHUB_TIMEOUT_PING", &cfg.Ping},
		{"CAMPUSHUB_TIMEOUT_SHORT", &cfg.Short},
		{"CAMPUSHUB_TIMEOUT_MEDIUM", &cfg.Medium},
		{"CAMPUSHUB_TIMEOUT_DISPATCH", &cfg.Dispatch},
	} {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Dispatch: dispatch}
}

// WithTimeout wraps context.WithTimeout and logs a warning from the returned
// cancel func when the deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Dispatch(), log, "dispatch event_created")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
