package notify

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Stores bundles the collaborators a Dispatcher reads and writes through.
type Stores struct {
	Users         UserDirectory
	Members       MembershipIndex
	Events        EventSource
	Groups        GroupSource
	Participants  ParticipantSink
	Notifications NotificationSink
}

// Config tunes a Dispatcher. Zero values select the package defaults.
type Config struct {
	Concurrency int // max in-flight writes per fan-out
	PageSize    int // audience ids fetched per page
}

// PostTrigger identifies a post that was just published.
type PostTrigger struct {
	GroupID primitive.ObjectID
	ActorID primitive.ObjectID
	PostID  primitive.ObjectID
}

// EventOutcome reports both fan-outs of an event dispatch.
type EventOutcome struct {
	Participants  Result `json:"participants"`
	Notifications Result `json:"notifications"`
}

// Dispatcher runs notification fan-outs for created events and posts.
type Dispatcher struct {
	st        Stores
	registrar *Registrar
	resolver  *Resolver
	limit     int
	log       *zap.Logger
	now       func() time.Time
}

func New(st Stores, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		st:        st,
		registrar: NewRegistrar(st.Events, st.Users, st.Participants, cfg.Concurrency, logger),
		resolver:  NewResolver(st.Users, st.Members, cfg.PageSize),
		limit:     cfg.Concurrency,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EventCreated registers the event's participants and notifies every other
// user. Collaborators receive the co-organizer content.
//
// A missing event or author returns a *NotFoundError before any write.
// Row failures are reported through a *PartialFailureError; both fan-outs
// always run to completion.
func (d *Dispatcher) EventCreated(ctx context.Context, eventID primitive.ObjectID) (EventOutcome, error) {
	var out EventOutcome

	ev, err := d.st.Events.GetByID(ctx, eventID)
	if err != nil {
		return out, lookupErr("event", eventID, err)
	}
	if _, err := d.st.Users.GetByID(ctx, ev.AuthorID); err != nil {
		return out, lookupErr("user", ev.AuthorID, err)
	}

	now := d.now()
	var perr error
	out.Participants, perr = d.registrar.register(ctx, ev, now)
	if perr != nil && !errors.Is(perr, ErrPartialFanout) {
		return out, perr
	}

	collaborators := NewCollaboratorSet(ev.Collaborators)
	payloads := mapSeq(d.resolver.EventAudience(ctx, ev.AuthorID), func(id primitive.ObjectID) models.Notification {
		return ComposeEvent(ev, id, collaborators.Contains(id), now)
	})
	var nerr error
	out.Notifications, nerr = d.write(ctx, payloads)

	d.log.Info("event notifications dispatched",
		zap.String("event_id", ev.ID.Hex()),
		zap.String("author_id", ev.AuthorID.Hex()),
		zap.Int("participants", out.Participants.Succeeded),
		zap.Int("notified", out.Notifications.Succeeded),
		zap.Int("failed", out.Participants.Failed+out.Notifications.Failed))

	return out, errors.Join(perr, nerr)
}

// PostCreated notifies every other forum member of the group.
//
// A missing actor or group returns a *NotFoundError before any write.
func (d *Dispatcher) PostCreated(ctx context.Context, t PostTrigger) (Result, error) {
	actor, err := d.st.Users.GetByID(ctx, t.ActorID)
	if err != nil {
		return Result{}, lookupErr("user", t.ActorID, err)
	}
	group, err := d.st.Groups.GetByID(ctx, t.GroupID)
	if err != nil {
		return Result{}, lookupErr("group", t.GroupID, err)
	}

	now := d.now()
	payloads := mapSeq(d.resolver.PostAudience(ctx, group.ID, actor.ID), func(id primitive.ObjectID) models.Notification {
		return ComposePost(group, *actor, t.PostID, id, now)
	})
	res, err := d.write(ctx, payloads)

	d.log.Info("post notifications dispatched",
		zap.String("group_id", group.ID.Hex()),
		zap.String("post_id", t.PostID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Int("notified", res.Succeeded),
		zap.Int("failed", res.Failed))

	return res, err
}

func (d *Dispatcher) write(ctx context.Context, payloads iter.Seq2[models.Notification, error]) (Result, error) {
	res, err := fanOut(ctx, "notifications", d.limit, payloads, d.st.Notifications.Insert)
	if err != nil {
		d.log.Warn("notification fan-out incomplete",
			zap.Int("attempted", res.Attempted),
			zap.Int("failed", res.Failed),
			zap.Error(err))
	}
	return res, err
}
