// internal/domain/models/dispatchjob.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dispatch job kinds.
const (
	DispatchEventCreated = "event_created"
	DispatchPostCreated  = "post_created"
)

// Dispatch job statuses.
const (
	DispatchPending = "pending"
	DispatchRunning = "running"
	DispatchDone    = "done"
	DispatchFailed  = "failed"
)

// DispatchJob is a queued notification fan-out. Jobs are claimed with a
// lease; a worker that dies mid-run leaves the lease to expire and another
// worker picks the job up again (at-least-once).
//
// EventID is set for event_created; GroupID, ActorID and PostID for
// post_created.
type DispatchJob struct {
	ID      primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind    string              `bson:"kind" json:"kind"`
	EventID *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	GroupID *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	PostID  *primitive.ObjectID `bson:"post_id,omitempty" json:"post_id,omitempty"`

	Status     string     `bson:"status" json:"status"`
	Attempts   int        `bson:"attempts" json:"attempts"`
	LeaseUntil *time.Time `bson:"lease_until,omitempty" json:"lease_until,omitempty"`
	RunID      string     `bson:"run_id,omitempty" json:"run_id,omitempty"`
	LastError  string     `bson:"last_error,omitempty" json:"last_error,omitempty"`

	// Outcome of the last completed run.
	Succeeded int `bson:"succeeded" json:"succeeded"`
	Failed    int `bson:"failed" json:"failed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
