package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/notify"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type outcome struct {
	status    string
	succeeded int
	failed    int
	lastErr   string
}

// memQueue hands out its jobs in order and records how each one ended.
type memQueue struct {
	mu       sync.Mutex
	pending  []models.DispatchJob
	outcomes map[primitive.ObjectID]outcome
	swept    int64
}

func newMemQueue(jobs ...models.DispatchJob) *memQueue {
	return &memQueue{pending: jobs, outcomes: map[primitive.ObjectID]outcome{}}
}

func (q *memQueue) Claim(_ context.Context, runID string, _ time.Duration, _ int, _ time.Time) (models.DispatchJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return models.DispatchJob{}, mongo.ErrNoDocuments
	}
	j := q.pending[0]
	q.pending = q.pending[1:]
	j.RunID = runID
	j.Attempts++
	j.Status = models.DispatchRunning
	return j, nil
}

func (q *memQueue) record(id primitive.ObjectID, o outcome) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outcomes[id] = o
	return nil
}

func (q *memQueue) Complete(_ context.Context, id primitive.ObjectID, _ string, s, f int, lastErr string) error {
	return q.record(id, outcome{models.DispatchDone, s, f, lastErr})
}

func (q *memQueue) Release(_ context.Context, id primitive.ObjectID, _ string, lastErr string) error {
	return q.record(id, outcome{status: models.DispatchPending, lastErr: lastErr})
}

func (q *memQueue) Fail(_ context.Context, id primitive.ObjectID, _ string, lastErr string) error {
	return q.record(id, outcome{status: models.DispatchFailed, lastErr: lastErr})
}

func (q *memQueue) FailExhausted(context.Context, int, time.Time) (int64, error) {
	return q.swept, nil
}

type stubDispatcher struct {
	eventOut notify.EventOutcome
	eventErr error
	postRes  notify.Result
	postErr  error
	posts    []notify.PostTrigger
}

func (d *stubDispatcher) EventCreated(context.Context, primitive.ObjectID) (notify.EventOutcome, error) {
	return d.eventOut, d.eventErr
}

func (d *stubDispatcher) PostCreated(_ context.Context, t notify.PostTrigger) (notify.Result, error) {
	d.posts = append(d.posts, t)
	return d.postRes, d.postErr
}

func eventJob(attempts int) models.DispatchJob {
	id := primitive.NewObjectID()
	return models.DispatchJob{ID: primitive.NewObjectID(), Kind: models.DispatchEventCreated, EventID: &id, Attempts: attempts}
}

func TestRunDispatch_Outcomes(t *testing.T) {
	pf := &notify.PartialFailureError{Op: "notifications", Result: notify.Result{Attempted: 3, Succeeded: 2, Failed: 1}}

	tests := []struct {
		name       string
		attempts   int // before claim
		out        notify.EventOutcome
		err        error
		wantStatus string
		wantOK     int
		wantFailed int
	}{
		{
			name:       "success",
			out:        notify.EventOutcome{Participants: notify.Result{Succeeded: 3}, Notifications: notify.Result{Succeeded: 3}},
			wantStatus: models.DispatchDone,
			wantOK:     6,
		},
		{
			name:       "partial failure completes",
			out:        notify.EventOutcome{Participants: notify.Result{Succeeded: 1}, Notifications: notify.Result{Succeeded: 2, Failed: 1}},
			err:        pf,
			wantStatus: models.DispatchDone,
			wantOK:     3,
			wantFailed: 1,
		},
		{
			name:       "not found fails",
			err:        &notify.NotFoundError{Kind: "event", ID: primitive.NewObjectID()},
			wantStatus: models.DispatchFailed,
		},
		{
			name:       "transient error retried",
			err:        errors.New("audience page: socket closed"),
			wantStatus: models.DispatchPending,
		},
		{
			name:       "transient error on last attempt",
			attempts:   2,
			err:        errors.New("audience page: socket closed"),
			wantStatus: models.DispatchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := eventJob(tt.attempts)
			q := newMemQueue(job)
			d := &stubDispatcher{eventOut: tt.out, eventErr: tt.err}

			claimed, err := q.Claim(context.Background(), "run", time.Minute, 3, time.Now())
			if err != nil {
				t.Fatalf("Claim: %v", err)
			}
			RunDispatch(context.Background(), q, d, claimed, 3, zap.NewNop())

			got, ok := q.outcomes[job.ID]
			if !ok {
				t.Fatal("no outcome recorded")
			}
			if got.status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.status, tt.wantStatus)
			}
			if got.succeeded != tt.wantOK || got.failed != tt.wantFailed {
				t.Errorf("counts = %d/%d, want %d/%d", got.succeeded, got.failed, tt.wantOK, tt.wantFailed)
			}
			if tt.err != nil && got.lastErr == "" {
				t.Error("expected last error to be recorded")
			}
		})
	}
}

func TestRunDispatch_PostJob(t *testing.T) {
	g, a, p := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	job := models.DispatchJob{ID: primitive.NewObjectID(), Kind: models.DispatchPostCreated, GroupID: &g, ActorID: &a, PostID: &p}
	q := newMemQueue()
	d := &stubDispatcher{postRes: notify.Result{Attempted: 4, Succeeded: 4}}

	RunDispatch(context.Background(), q, d, job, 3, zap.NewNop())

	if len(d.posts) != 1 || d.posts[0] != (notify.PostTrigger{GroupID: g, ActorID: a, PostID: p}) {
		t.Fatalf("PostCreated calls = %+v", d.posts)
	}
	if got := q.outcomes[job.ID]; got.status != models.DispatchDone || got.succeeded != 4 {
		t.Errorf("outcome = %+v", got)
	}
}

func TestRunDispatch_MalformedJob(t *testing.T) {
	job := models.DispatchJob{ID: primitive.NewObjectID(), Kind: models.DispatchPostCreated}
	q := newMemQueue()

	RunDispatch(context.Background(), q, &stubDispatcher{}, job, 3, zap.NewNop())

	if got := q.outcomes[job.ID]; got.status != models.DispatchFailed {
		t.Errorf("status = %q, want failed", got.status)
	}
}

func TestDispatchDrainJob_DrainsQueue(t *testing.T) {
	jobs := []models.DispatchJob{eventJob(0), eventJob(0), eventJob(0)}
	q := newMemQueue(jobs...)
	d := &stubDispatcher{}

	job := DispatchDrainJob(q, d, DispatchConfig{Batch: 10}, zap.NewNop())
	if job.Name != "dispatch-drain" || job.Interval <= 0 {
		t.Errorf("unexpected job: %+v", job)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.outcomes) != 3 {
		t.Errorf("handled %d jobs, want 3", len(q.outcomes))
	}
}

func TestDispatchDrainJob_RespectsBatch(t *testing.T) {
	q := newMemQueue(eventJob(0), eventJob(0), eventJob(0))

	job := DispatchDrainJob(q, &stubDispatcher{}, DispatchConfig{Batch: 2}, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(q.outcomes) != 2 || len(q.pending) != 1 {
		t.Errorf("handled %d, left %d; want 2 and 1", len(q.outcomes), len(q.pending))
	}
}

func TestDispatchSweepJob(t *testing.T) {
	q := newMemQueue()
	q.swept = 2
	job := DispatchSweepJob(q, 5, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
