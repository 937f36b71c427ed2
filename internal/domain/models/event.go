// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a platform-wide event. Collaborators are the co-organizers chosen
// by the author; order is preserved as entered.
type Event struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	AuthorID      primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Collaborators []primitive.ObjectID `bson:"collaborators,omitempty" json:"collaborators,omitempty"`
	StartsAt      *time.Time           `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
}

// EventParticipant records that a user takes part in an event.
// Written once per (event, user) when the event is created; never updated.
type EventParticipant struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   primitive.ObjectID `bson:"event_id" json:"event_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
