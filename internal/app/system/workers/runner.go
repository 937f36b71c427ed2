package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner runs each job on its own ticker until Stop is called.
// A job never overlaps with itself; a slow run delays its next tick.
type Runner struct {
	jobs   []tasks.Job
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner for jobs. Nothing runs until Start.
func NewRunner(logger *zap.Logger, jobs ...tasks.Job) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{jobs: jobs, log: logger, ctx: ctx, cancel: cancel}
}

// Start launches one goroutine per job. Each job runs once immediately and
// then on every interval.
func (r *Runner) Start() {
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(job)
		r.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop cancels in-flight runs and waits for every loop to exit.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

func (r *Runner) loop(job tasks.Job) {
	defer r.wg.Done()

	interval := job.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.runOnce(job)
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(job)
		}
	}
}

func (r *Runner) runOnce(job tasks.Job) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("background job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", p))
		}
	}()

	start := time.Now()
	if err := job.Run(r.ctx); err != nil && r.ctx.Err() == nil {
		r.log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	}
}
