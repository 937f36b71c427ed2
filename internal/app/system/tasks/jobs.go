// Package tasks defines the periodic background jobs the worker runner
// executes.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/notify"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Job is a unit of periodic work. Run is called once per Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// DispatchQueue is the durable job queue (dispatchjobstore.Store).
type DispatchQueue interface {
	Claim(ctx context.Context, runID string, lease time.Duration, maxAttempts int, now time.Time) (models.DispatchJob, error)
	Complete(ctx context.Context, id primitive.ObjectID, runID string, succeeded, failed int, lastErr string) error
	Release(ctx context.Context, id primitive.ObjectID, runID string, lastErr string) error
	Fail(ctx context.Context, id primitive.ObjectID, runID string, lastErr string) error
	FailExhausted(ctx context.Context, maxAttempts int, now time.Time) (int64, error)
}

// Dispatcher runs fan-outs (notify.Dispatcher).
type Dispatcher interface {
	EventCreated(ctx context.Context, eventID primitive.ObjectID) (notify.EventOutcome, error)
	PostCreated(ctx context.Context, t notify.PostTrigger) (notify.Result, error)
}

// DispatchConfig tunes the drain job.
type DispatchConfig struct {
	Interval    time.Duration // how often the queue is polled
	Lease       time.Duration // how long a claimed job is owned
	MaxAttempts int           // claims before a job is given up
	Batch       int           // max jobs handled per tick
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Lease <= 0 {
		c.Lease = timeouts.Dispatch() + time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Batch <= 0 {
		c.Batch = 20
	}
	return c
}

// DispatchDrainJob claims queued fan-outs and runs them one at a time until
// the queue is empty or Batch jobs were handled.
func DispatchDrainJob(q DispatchQueue, d Dispatcher, cfg DispatchConfig, logger *zap.Logger) Job {
	cfg = cfg.withDefaults()
	return Job{
		Name:     "dispatch-drain",
		Interval: cfg.Interval,
		Run: func(ctx context.Context) error {
			for i := 0; i < cfg.Batch; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				runID := uuid.NewString()
				job, err := q.Claim(ctx, runID, cfg.Lease, cfg.MaxAttempts, time.Now())
				if errors.Is(err, mongo.ErrNoDocuments) {
					return nil
				}
				if err != nil {
					return err
				}
				RunDispatch(ctx, q, d, job, cfg.MaxAttempts, logger)
			}
			return nil
		},
	}
}

// RunDispatch executes one claimed job and records its outcome. The job
// ends done when the fan-out ran to completion (row failures included),
// failed when its trigger references missing documents or it is out of
// attempts, and pending again otherwise.
func RunDispatch(ctx context.Context, q DispatchQueue, d Dispatcher, job models.DispatchJob, maxAttempts int, logger *zap.Logger) {
	log := logger.With(
		zap.String("job_id", job.ID.Hex()),
		zap.String("kind", job.Kind),
		zap.String("run_id", job.RunID),
		zap.Int("attempt", job.Attempts))

	runCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Dispatch(), logger, "dispatch "+job.Kind)
	res, err := runJob(runCtx, d, job)
	cancel()

	// Record with a fresh context so a timed-out run still releases its lease.
	recCtx, recCancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer recCancel()

	var recErr error
	switch {
	case err == nil:
		recErr = q.Complete(recCtx, job.ID, job.RunID, res.Succeeded, res.Failed, "")
		log.Debug("dispatch job done", zap.Int("succeeded", res.Succeeded))
	case !notify.Retryable(err) && errors.Is(err, notify.ErrNotFound):
		recErr = q.Fail(recCtx, job.ID, job.RunID, err.Error())
		log.Warn("dispatch job failed permanently", zap.Error(err))
	case !notify.Retryable(err):
		recErr = q.Complete(recCtx, job.ID, job.RunID, res.Succeeded, res.Failed, err.Error())
		log.Warn("dispatch job completed with failures",
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
			zap.Error(err))
	case job.Attempts >= maxAttempts:
		recErr = q.Fail(recCtx, job.ID, job.RunID, err.Error())
		log.Error("dispatch job out of attempts", zap.Error(err))
	default:
		recErr = q.Release(recCtx, job.ID, job.RunID, err.Error())
		log.Warn("dispatch job will be retried", zap.Error(err))
	}
	if recErr != nil {
		log.Error("failed to record dispatch outcome", zap.Error(recErr))
	}
}

func runJob(ctx context.Context, d Dispatcher, job models.DispatchJob) (notify.Result, error) {
	switch job.Kind {
	case models.DispatchEventCreated:
		if job.EventID == nil {
			return notify.Result{}, &notify.NotFoundError{Kind: "event"}
		}
		out, err := d.EventCreated(ctx, *job.EventID)
		return notify.Result{
			Attempted: out.Participants.Attempted + out.Notifications.Attempted,
			Succeeded: out.Participants.Succeeded + out.Notifications.Succeeded,
			Failed:    out.Participants.Failed + out.Notifications.Failed,
		}, err
	case models.DispatchPostCreated:
		if job.GroupID == nil || job.ActorID == nil || job.PostID == nil {
			return notify.Result{}, &notify.NotFoundError{Kind: "post"}
		}
		return d.PostCreated(ctx, notify.PostTrigger{
			GroupID: *job.GroupID,
			ActorID: *job.ActorID,
			PostID:  *job.PostID,
		})
	default:
		return notify.Result{}, &notify.NotFoundError{Kind: job.Kind}
	}
}

// DispatchSweepJob fails jobs whose worker died during the final attempt.
// Claim never hands those out again, so without the sweep they would stay
// running forever.
func DispatchSweepJob(q DispatchQueue, maxAttempts int, logger *zap.Logger) Job {
	return Job{
		Name:     "dispatch-sweep",
		Interval: time.Minute,
		Run: func(ctx context.Context) error {
			n, err := q.FailExhausted(ctx, maxAttempts, time.Now())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("failed abandoned dispatch jobs", zap.Int64("count", n))
			}
			return nil
		},
	}
}
