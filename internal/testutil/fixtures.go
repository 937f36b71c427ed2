package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user. function may be nil.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, role string, function *string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	full := first + " " + last
	user := models.User{
		ID:         primitive.NewObjectID(),
		FirstName:  first,
		LastName:   last,
		FullName:   full,
		FullNameCI: text.Fold(full),
		Email:      primitive.NewObjectID().Hex() + "@example.com",
		Role:       role,
		Function:   function,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent creates a user with the student function.
func (f *Fixtures) CreateStudent(ctx context.Context, first, last string) models.User {
	f.t.Helper()
	fn := models.FunctionStudent
	return f.CreateUser(ctx, first, last, models.RoleUser, &fn)
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, first, last string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, last, models.RoleAdmin, nil)
}

// CreateGroup creates a test group authored by authorID.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, authorID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateGroupMembership links a user to a group with the given group type.
func (f *Fixtures) CreateGroupMembership(ctx context.Context, groupID, userID primitive.ObjectID, groupType string) models.GroupMembership {
	f.t.Helper()

	membership := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		GroupType: groupType,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, membership); err != nil {
		f.t.Fatalf("failed to create test group membership: %v", err)
	}
	return membership
}

// CreateEvent creates a test event.
func (f *Fixtures) CreateEvent(ctx context.Context, name string, authorID primitive.ObjectID, collaborators ...primitive.ObjectID) models.Event {
	f.t.Helper()

	ev := models.Event{
		ID:            primitive.NewObjectID(),
		Name:          name,
		AuthorID:      authorID,
		Collaborators: collaborators,
		CreatedAt:     time.Now().UTC(),
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}
