package notify

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func idLess(a, b primitive.ObjectID) bool { return bytes.Compare(a[:], b[:]) < 0 }

type fakeUsers struct {
	byID      map[primitive.ObjectID]models.User
	pages     int
	failAfter int // fail page number failAfter+1 when > 0
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{byID: map[primitive.ObjectID]models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (f *fakeUsers) ListIDsAfter(_ context.Context, after primitive.ObjectID, limit int64) ([]primitive.ObjectID, error) {
	f.pages++
	if f.failAfter > 0 && f.pages > f.failAfter {
		return nil, errors.New("directory unavailable")
	}
	ids := make([]primitive.ObjectID, 0, len(f.byID))
	for id := range f.byID {
		if after.IsZero() || idLess(after, id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeMembers struct {
	rows []models.GroupMembership
}

func (f *fakeMembers) add(groupID, userID primitive.ObjectID, groupType string) {
	f.rows = append(f.rows, models.GroupMembership{GroupID: groupID, UserID: userID, GroupType: groupType})
}

func (f *fakeMembers) ListMemberIDsAfter(_ context.Context, groupID primitive.ObjectID, groupType string, after primitive.ObjectID, limit int64) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, m := range f.rows {
		if m.GroupID != groupID || m.GroupType != groupType {
			continue
		}
		if after.IsZero() || idLess(after, m.UserID) {
			ids = append(ids, m.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeEvents map[primitive.ObjectID]models.Event

func (f fakeEvents) GetByID(_ context.Context, id primitive.ObjectID) (models.Event, error) {
	ev, ok := f[id]
	if !ok {
		return models.Event{}, mongo.ErrNoDocuments
	}
	return ev, nil
}

type fakeGroups map[primitive.ObjectID]models.Group

func (f fakeGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	g, ok := f[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return g, nil
}

// recordSink collects rows and can fail for selected users.
type recordSink[T any] struct {
	mu       sync.Mutex
	rows     []T
	failFor  map[primitive.ObjectID]bool
	userOf   func(T) primitive.ObjectID
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *recordSink[T]) Insert(_ context.Context, row T) error {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.failFor[s.userOf(row)] {
		return errors.New("write rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

func (s *recordSink[T]) users() map[primitive.ObjectID]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]int{}
	for _, r := range s.rows {
		out[s.userOf(r)]++
	}
	return out
}

func newParticipantSink() *recordSink[models.EventParticipant] {
	return &recordSink[models.EventParticipant]{
		failFor: map[primitive.ObjectID]bool{},
		userOf:  func(p models.EventParticipant) primitive.ObjectID { return p.UserID },
	}
}

func newNotificationSink() *recordSink[models.Notification] {
	return &recordSink[models.Notification]{
		failFor: map[primitive.ObjectID]bool{},
		userOf:  func(n models.Notification) primitive.ObjectID { return n.RecipientID },
	}
}

func user(first, last, role string, function *string) models.User {
	return models.User{
		ID:        primitive.NewObjectID(),
		FirstName: first,
		LastName:  last,
		FullName:  first + " " + last,
		Role:      role,
		Function:  function,
	}
}

func strp(s string) *string { return &s }
