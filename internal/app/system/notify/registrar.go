package notify

import (
	"context"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Registrar writes the participant rows of a newly created event.
type Registrar struct {
	events EventSource
	users  UserDirectory
	sink   ParticipantSink
	limit  int
	log    *zap.Logger
	now    func() time.Time
}

func NewRegistrar(events EventSource, users UserDirectory, sink ParticipantSink, concurrency int, logger *zap.Logger) *Registrar {
	return &Registrar{
		events: events,
		users:  users,
		sink:   sink,
		limit:  concurrency,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register loads the event and its author and writes one participant row
// for the author and each distinct collaborator.
func (r *Registrar) Register(ctx context.Context, eventID primitive.ObjectID) (Result, error) {
	ev, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return Result{}, lookupErr("event", eventID, err)
	}
	if _, err := r.users.GetByID(ctx, ev.AuthorID); err != nil {
		return Result{}, lookupErr("user", ev.AuthorID, err)
	}
	return r.register(ctx, ev, r.now())
}

// register writes the rows for an already validated event.
func (r *Registrar) register(ctx context.Context, ev models.Event, now time.Time) (Result, error) {
	ids := ParticipantIDs(ev)
	res, err := fanOut(ctx, "participants", r.limit, seqOf(ids), func(ctx context.Context, userID primitive.ObjectID) error {
		return r.sink.Insert(ctx, models.EventParticipant{
			EventID:   ev.ID,
			UserID:    userID,
			CreatedAt: now,
		})
	})
	if err != nil {
		r.log.Warn("event participant registration incomplete",
			zap.String("event_id", ev.ID.Hex()),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
			zap.Error(err))
	}
	return res, err
}

// ParticipantIDs returns the author followed by the collaborators in order,
// each user once. A collaborator equal to the author or repeated in the list
// does not produce a second row.
func ParticipantIDs(ev models.Event) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ev.Collaborators)+1)
	out := make([]primitive.ObjectID, 0, len(ev.Collaborators)+1)
	for _, id := range append([]primitive.ObjectID{ev.AuthorID}, ev.Collaborators...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
