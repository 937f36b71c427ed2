package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var errNameRequired = errors.New("event name is required")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts the event. Collaborators are stored in the order given,
// minus the author and repeats.
func (s *Store) Create(ctx context.Context, ev models.Event) (models.Event, error) {
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" {
		return models.Event{}, errNameRequired
	}
	ev.ID = primitive.NewObjectID()
	ev.Collaborators = cleanCollaborators(ev.AuthorID, ev.Collaborators)
	ev.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// GetByID returns mongo.ErrNoDocuments if the event does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func cleanCollaborators(author primitive.ObjectID, in []primitive.ObjectID) []primitive.ObjectID {
	if len(in) == 0 {
		return nil
	}
	seen := map[primitive.ObjectID]struct{}{author: {}}
	out := make([]primitive.ObjectID, 0, len(in))
	for _, id := range in {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
