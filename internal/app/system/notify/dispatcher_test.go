package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type harness struct {
	users         *fakeUsers
	members       *fakeMembers
	events        fakeEvents
	groups        fakeGroups
	participants  *recordSink[models.EventParticipant]
	notifications *recordSink[models.Notification]
	d             *Dispatcher
}

func newHarness(t *testing.T, cfg Config, users ...models.User) *harness {
	t.Helper()
	h := &harness{
		users:         newFakeUsers(users...),
		members:       &fakeMembers{},
		events:        fakeEvents{},
		groups:        fakeGroups{},
		participants:  newParticipantSink(),
		notifications: newNotificationSink(),
	}
	h.d = New(Stores{
		Users:         h.users,
		Members:       h.members,
		Events:        h.events,
		Groups:        h.groups,
		Participants:  h.participants,
		Notifications: h.notifications,
	}, cfg, zap.NewNop())
	return h
}

func (h *harness) notificationFor(t *testing.T, recipient primitive.ObjectID) models.Notification {
	t.Helper()
	for _, n := range h.notifications.rows {
		if n.RecipientID == recipient {
			return n
		}
	}
	t.Fatalf("no notification for %s", recipient.Hex())
	return models.Notification{}
}

func TestEventCreated_Scenario(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	u3 := user("Grace", "Hopper", models.RoleUser, nil)
	u4 := user("Edsger", "Dijkstra", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2, u3, u4)

	ev := models.Event{ID: primitive.NewObjectID(), Name: "Hackathon", AuthorID: u1.ID, Collaborators: []primitive.ObjectID{u2.ID, u3.ID}}
	h.events[ev.ID] = ev

	out, err := h.d.EventCreated(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("EventCreated failed: %v", err)
	}

	parts := h.participants.users()
	if len(parts) != 3 || parts[u1.ID] != 1 || parts[u2.ID] != 1 || parts[u3.ID] != 1 {
		t.Errorf("participants: got %v, want exactly u1,u2,u3 once each", parts)
	}
	if out.Participants.Succeeded != 3 {
		t.Errorf("Participants.Succeeded: got %d, want 3", out.Participants.Succeeded)
	}

	got := h.notifications.users()
	if len(got) != 3 || got[u2.ID] != 1 || got[u3.ID] != 1 || got[u4.ID] != 1 {
		t.Errorf("recipients: got %v, want exactly u2,u3,u4", got)
	}
	if got[u1.ID] != 0 {
		t.Error("author must not be notified")
	}
	if out.Notifications.Succeeded != 3 || out.Notifications.Failed != 0 {
		t.Errorf("Notifications result: got %+v", out.Notifications)
	}

	for _, id := range []primitive.ObjectID{u2.ID, u3.ID} {
		n := h.notificationFor(t, id)
		if n.Content == nil || *n.Content != CoOrganizerContent {
			t.Errorf("co-organizer %s: content = %v, want %q", id.Hex(), n.Content, CoOrganizerContent)
		}
	}
	n4 := h.notificationFor(t, u4.ID)
	if n4.Content != nil {
		t.Errorf("ordinary recipient: content = %q, want nil", *n4.Content)
	}
	if n4.Title != "A new event has been created: Hackathon" {
		t.Errorf("Title: got %q", n4.Title)
	}
	if n4.SenderID != u1.ID || n4.IsRead || n4.NotificationType != "event" || n4.TargetType != "event" {
		t.Errorf("unexpected notification fields: %+v", n4)
	}
	if n4.EventID == nil || *n4.EventID != ev.ID || n4.PostID != nil {
		t.Errorf("target reference: got event=%v post=%v", n4.EventID, n4.PostID)
	}
}

func TestEventCreated_RecipientsAreEveryoneButAuthor(t *testing.T) {
	for _, size := range []int{1, 2, 7, 23} {
		var users []models.User
		for i := 0; i < size; i++ {
			users = append(users, user("U", "X", models.RoleUser, nil))
		}
		// Small pages force several round trips.
		h := newHarness(t, Config{PageSize: 3, Concurrency: 4}, users...)
		author := users[size/2]
		ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: author.ID}
		h.events[ev.ID] = ev

		if _, err := h.d.EventCreated(context.Background(), ev.ID); err != nil {
			t.Fatalf("size %d: EventCreated failed: %v", size, err)
		}
		got := h.notifications.users()
		if len(got) != size-1 {
			t.Errorf("size %d: got %d recipients, want %d", size, len(got), size-1)
		}
		if got[author.ID] != 0 {
			t.Errorf("size %d: author notified", size)
		}
		for id, n := range got {
			if n != 1 {
				t.Errorf("size %d: %s notified %d times", size, id.Hex(), n)
			}
		}
	}
}

func TestEventCreated_NotFound(t *testing.T) {
	author := user("Ada", "Lovelace", models.RoleUser, nil)
	other := user("Alan", "Turing", models.RoleUser, nil)

	t.Run("missing event", func(t *testing.T) {
		h := newHarness(t, Config{}, author, other)
		missing := primitive.NewObjectID()
		_, err := h.d.EventCreated(context.Background(), missing)

		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Kind != "event" || nf.ID != missing {
			t.Fatalf("expected event NotFoundError, got %v", err)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Error("expected errors.Is(err, ErrNotFound)")
		}
		if len(h.participants.rows) != 0 || len(h.notifications.rows) != 0 {
			t.Error("no rows may be written when the trigger is invalid")
		}
	})

	t.Run("missing author", func(t *testing.T) {
		h := newHarness(t, Config{}, other)
		ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: author.ID}
		h.events[ev.ID] = ev

		_, err := h.d.EventCreated(context.Background(), ev.ID)
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Kind != "user" {
			t.Fatalf("expected user NotFoundError, got %v", err)
		}
		if len(h.participants.rows) != 0 || len(h.notifications.rows) != 0 {
			t.Error("no rows may be written when the author is missing")
		}
	})
}

func TestEventCreated_PartialFailure(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	u3 := user("Grace", "Hopper", models.RoleUser, nil)
	u4 := user("Edsger", "Dijkstra", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2, u3, u4)
	h.notifications.failFor[u3.ID] = true
	h.participants.failFor[u2.ID] = true

	ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: u1.ID, Collaborators: []primitive.ObjectID{u2.ID}}
	h.events[ev.ID] = ev

	out, err := h.d.EventCreated(context.Background(), ev.ID)
	if !errors.Is(err, ErrPartialFanout) {
		t.Fatalf("expected ErrPartialFanout, got %v", err)
	}
	if out.Participants.Succeeded != 1 || out.Participants.Failed != 1 {
		t.Errorf("participants: got %+v, want 1 ok / 1 failed", out.Participants)
	}
	if out.Notifications.Succeeded != 2 || out.Notifications.Failed != 1 {
		t.Errorf("notifications: got %+v, want 2 ok / 1 failed", out.Notifications)
	}
	got := h.notifications.users()
	if got[u2.ID] != 1 || got[u4.ID] != 1 {
		t.Errorf("sibling writes must survive a failure, got %v", got)
	}

	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatal("expected a *PartialFailureError in the chain")
	}
	if len(pf.Errs) == 0 {
		t.Error("expected row errors to be kept")
	}
}

func TestEventCreated_DuplicateTriggersAreNotSuppressed(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	u3 := user("Grace", "Hopper", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2, u3)
	ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: u1.ID, Collaborators: []primitive.ObjectID{u2.ID}}
	h.events[ev.ID] = ev

	for i := 0; i < 2; i++ {
		if _, err := h.d.EventCreated(context.Background(), ev.ID); err != nil {
			t.Fatalf("dispatch %d failed: %v", i, err)
		}
	}

	if len(h.notifications.rows) != 4 {
		t.Errorf("notifications: got %d, want 4 (two full fan-outs)", len(h.notifications.rows))
	}
	if len(h.participants.rows) != 4 {
		t.Errorf("participants: got %d, want 4 (two full registrations)", len(h.participants.rows))
	}
}

func TestEventCreated_CanceledContext(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2)
	ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: u1.ID}
	h.events[ev.ID] = ev

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.d.EventCreated(ctx, ev.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(h.notifications.rows) != 0 {
		t.Error("no notifications expected after cancellation")
	}
}

func TestPostCreated_Scenario(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	u3 := user("Grace", "Hopper", models.RoleUser, nil)
	outsider := user("Edsger", "Dijkstra", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2, u3, outsider)

	g1 := models.Group{ID: primitive.NewObjectID(), Name: "G1"}
	h.groups[g1.ID] = g1
	for _, u := range []models.User{u1, u2, u3} {
		h.members.add(g1.ID, u.ID, models.GroupTypeForum)
	}
	postID := primitive.NewObjectID()

	res, err := h.d.PostCreated(context.Background(), PostTrigger{GroupID: g1.ID, ActorID: u1.ID, PostID: postID})
	if err != nil {
		t.Fatalf("PostCreated failed: %v", err)
	}
	if res.Succeeded != 2 {
		t.Errorf("Succeeded: got %d, want 2", res.Succeeded)
	}

	got := h.notifications.users()
	if len(got) != 2 || got[u2.ID] != 1 || got[u3.ID] != 1 {
		t.Fatalf("recipients: got %v, want u2,u3", got)
	}

	n := h.notificationFor(t, u2.ID)
	if n.Title != "New post in G1 by Ada Lovelace" {
		t.Errorf("Title: got %q", n.Title)
	}
	if n.Content != nil {
		t.Error("post notifications carry no content")
	}
	if n.NotificationType != "post" || n.TargetType != "post" || n.SenderID != u1.ID {
		t.Errorf("unexpected fields: %+v", n)
	}
	if n.PostID == nil || *n.PostID != postID || n.EventID != nil {
		t.Errorf("target reference: got post=%v event=%v", n.PostID, n.EventID)
	}
}

func TestPostCreated_OnlyForumMemberships(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	u2 := user("Alan", "Turing", models.RoleUser, nil)
	u3 := user("Grace", "Hopper", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1, u2, u3)

	g := models.Group{ID: primitive.NewObjectID(), Name: "G"}
	h.groups[g.ID] = g
	h.members.add(g.ID, u1.ID, models.GroupTypeForum)
	h.members.add(g.ID, u2.ID, models.GroupTypeForum)
	h.members.add(g.ID, u3.ID, "club")

	if _, err := h.d.PostCreated(context.Background(), PostTrigger{GroupID: g.ID, ActorID: u1.ID, PostID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("PostCreated failed: %v", err)
	}
	got := h.notifications.users()
	if len(got) != 1 || got[u2.ID] != 1 {
		t.Errorf("recipients: got %v, want only u2", got)
	}
}

func TestPostCreated_EmptyAudience(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1)
	g := models.Group{ID: primitive.NewObjectID(), Name: "Solo"}
	h.groups[g.ID] = g
	h.members.add(g.ID, u1.ID, models.GroupTypeForum)

	res, err := h.d.PostCreated(context.Background(), PostTrigger{GroupID: g.ID, ActorID: u1.ID, PostID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("empty audience is not an error, got %v", err)
	}
	if res != (Result{}) {
		t.Errorf("expected zero result, got %+v", res)
	}
	if len(h.notifications.rows) != 0 {
		t.Error("expected zero writes")
	}
}

func TestPostCreated_NotFound(t *testing.T) {
	u1 := user("Ada", "Lovelace", models.RoleUser, nil)
	h := newHarness(t, Config{}, u1)
	g := models.Group{ID: primitive.NewObjectID(), Name: "G"}
	h.groups[g.ID] = g

	tests := []struct {
		name    string
		trigger PostTrigger
		kind    string
	}{
		{"missing actor", PostTrigger{GroupID: g.ID, ActorID: primitive.NewObjectID()}, "user"},
		{"missing group", PostTrigger{GroupID: primitive.NewObjectID(), ActorID: u1.ID}, "group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.d.PostCreated(context.Background(), tt.trigger)
			var nf *NotFoundError
			if !errors.As(err, &nf) || nf.Kind != tt.kind {
				t.Fatalf("expected %s NotFoundError, got %v", tt.kind, err)
			}
		})
	}
	if len(h.notifications.rows) != 0 {
		t.Error("no writes expected")
	}
}

func TestDispatch_ConcurrencyIsBounded(t *testing.T) {
	var users []models.User
	for i := 0; i < 40; i++ {
		users = append(users, user("U", "X", models.RoleUser, nil))
	}
	h := newHarness(t, Config{Concurrency: 3, PageSize: 7}, users...)
	h.notifications.delay = 2 * time.Millisecond
	ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: users[0].ID}
	h.events[ev.ID] = ev

	out, err := h.d.EventCreated(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("EventCreated failed: %v", err)
	}
	if out.Notifications.Succeeded != 39 {
		t.Errorf("Succeeded: got %d, want 39", out.Notifications.Succeeded)
	}
	if peak := h.notifications.maxSeen.Load(); peak > 3 {
		t.Errorf("max in-flight writes: got %d, want <= 3", peak)
	}
}

func TestDispatch_AudienceErrorStopsFanout(t *testing.T) {
	var users []models.User
	for i := 0; i < 6; i++ {
		users = append(users, user("U", "X", models.RoleUser, nil))
	}
	h := newHarness(t, Config{PageSize: 2}, users...)
	h.users.failAfter = 1
	ev := models.Event{ID: primitive.NewObjectID(), Name: "E", AuthorID: primitive.NewObjectID()}
	h.users.byID[ev.AuthorID] = user("Author", "A", models.RoleUser, nil)
	h.events[ev.ID] = ev

	out, err := h.d.EventCreated(context.Background(), ev.ID)
	if err == nil {
		t.Fatal("expected audience scan error")
	}
	if errors.Is(err, ErrPartialFanout) {
		t.Error("a scan error is not a row failure")
	}
	if out.Notifications.Succeeded != 2 {
		t.Errorf("first page writes: got %d, want 2", out.Notifications.Succeeded)
	}
}
