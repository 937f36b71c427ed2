package notify

import (
	"context"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The dispatcher reads and writes through these interfaces. The Mongo stores
// under internal/app/store implement them; lookups report a missing document
// with mongo.ErrNoDocuments (or ErrNotFound).

// UserDirectory is the read side of the users collection.
type UserDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// ListIDsAfter returns up to limit user ids greater than after, in
	// ascending order. A zero after starts from the beginning.
	ListIDsAfter(ctx context.Context, after primitive.ObjectID, limit int64) ([]primitive.ObjectID, error)
}

// MembershipIndex lists group members by group.
type MembershipIndex interface {
	// ListMemberIDsAfter returns up to limit member user ids of the group
	// greater than after, in ascending order.
	ListMemberIDsAfter(ctx context.Context, groupID primitive.ObjectID, groupType string, after primitive.ObjectID, limit int64) ([]primitive.ObjectID, error)
}

type EventSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error)
}

type GroupSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
}

type ParticipantSink interface {
	Insert(ctx context.Context, p models.EventParticipant) error
}

type NotificationSink interface {
	Insert(ctx context.Context, n models.Notification) error
}
