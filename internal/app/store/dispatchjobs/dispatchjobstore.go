// Package dispatchjobstore is the durable queue behind deferred notification
// fan-out. A job is claimed with a lease; a worker that dies mid-run lets
// the lease lapse and the job is claimed again, so every trigger runs at
// least once.
package dispatchjobstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrLeaseLost is returned when a job's outcome is recorded by a run that
// no longer holds the lease.
var ErrLeaseLost = errors.New("dispatch job lease lost")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("dispatch_jobs")}
}

// EnqueueEvent queues the event_created fan-out for eventID.
func (s *Store) EnqueueEvent(ctx context.Context, eventID primitive.ObjectID) (models.DispatchJob, error) {
	return s.enqueue(ctx, models.DispatchJob{
		Kind:    models.DispatchEventCreated,
		EventID: &eventID,
	})
}

// EnqueuePost queues the post_created fan-out.
func (s *Store) EnqueuePost(ctx context.Context, groupID, actorID, postID primitive.ObjectID) (models.DispatchJob, error) {
	return s.enqueue(ctx, models.DispatchJob{
		Kind:    models.DispatchPostCreated,
		GroupID: &groupID,
		ActorID: &actorID,
		PostID:  &postID,
	})
}

func (s *Store) enqueue(ctx context.Context, j models.DispatchJob) (models.DispatchJob, error) {
	now := time.Now().UTC()
	j.ID = primitive.NewObjectID()
	j.Status = models.DispatchPending
	j.CreatedAt = now
	j.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, j); err != nil {
		return models.DispatchJob{}, err
	}
	return j, nil
}

// Claim leases the oldest runnable job to runID. Runnable means pending, or
// running with an expired lease, and with fewer than maxAttempts attempts.
// Returns mongo.ErrNoDocuments when the queue is empty.
func (s *Store) Claim(ctx context.Context, runID string, lease time.Duration, maxAttempts int, now time.Time) (models.DispatchJob, error) {
	now = now.UTC()
	filter := bson.M{
		"attempts": bson.M{"$lt": maxAttempts},
		"$or": bson.A{
			bson.M{"status": models.DispatchPending},
			bson.M{"status": models.DispatchRunning, "lease_until": bson.M{"$lt": now}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"status":      models.DispatchRunning,
			"lease_until": now.Add(lease),
			"run_id":      runID,
			"updated_at":  now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var j models.DispatchJob
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&j); err != nil {
		return models.DispatchJob{}, err
	}
	return j, nil
}

// Complete marks the job done and records the fan-out counts. lastErr may
// carry a partial-failure summary.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, runID string, succeeded, failed int, lastErr string) error {
	return s.finish(ctx, id, runID, bson.M{
		"status":     models.DispatchDone,
		"succeeded":  succeeded,
		"failed":     failed,
		"last_error": lastErr,
	})
}

// Release returns the job to pending so another attempt can claim it.
func (s *Store) Release(ctx context.Context, id primitive.ObjectID, runID string, lastErr string) error {
	return s.finish(ctx, id, runID, bson.M{
		"status":     models.DispatchPending,
		"last_error": lastErr,
	})
}

// Fail marks the job permanently failed.
func (s *Store) Fail(ctx context.Context, id primitive.ObjectID, runID string, lastErr string) error {
	return s.finish(ctx, id, runID, bson.M{
		"status":     models.DispatchFailed,
		"last_error": lastErr,
	})
}

func (s *Store) finish(ctx context.Context, id primitive.ObjectID, runID string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "run_id": runID, "status": models.DispatchRunning},
		bson.M{"$set": set, "$unset": bson.M{"lease_until": ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrLeaseLost
	}
	return nil
}

// FailExhausted marks running jobs whose lease expired on their final
// attempt as failed. Returns how many were changed.
func (s *Store) FailExhausted(ctx context.Context, maxAttempts int, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":      models.DispatchRunning,
			"lease_until": bson.M{"$lt": now.UTC()},
			"attempts":    bson.M{"$gte": maxAttempts},
		},
		bson.M{
			"$set": bson.M{
				"status":     models.DispatchFailed,
				"last_error": "lease expired on final attempt",
				"updated_at": now.UTC(),
			},
			"$unset": bson.M{"lease_until": ""},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// GetByID returns mongo.ErrNoDocuments if the job does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DispatchJob, error) {
	var j models.DispatchJob
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		return models.DispatchJob{}, err
	}
	return j, nil
}

// CountByStatus returns the number of jobs in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
