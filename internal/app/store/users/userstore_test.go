package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/campushub/internal/app/store/users"
	"github.com/dalemusser/campushub/internal/app/system/indexes"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func strp(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FirstName: "  Ada ",
		LastName:  "Lovelace",
		Email:     " Ada@Example.EDU ",
		Function:  strp(" Etudiant "),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Ada Lovelace" {
		t.Errorf("FullName = %q", created.FullName)
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}
	if created.Email != "ada@example.edu" {
		t.Errorf("Email = %q, want normalized", created.Email)
	}
	if created.Role != models.RoleUser {
		t.Errorf("Role = %q, want default %q", created.Role, models.RoleUser)
	}
	if created.Function == nil || *created.Function != models.FunctionStudent {
		t.Errorf("Function = %v, want %q", created.Function, models.FunctionStudent)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := store.GetByEmail(ctx, "ADA@example.edu")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail returned %s, want %s", got.ID.Hex(), created.ID.Hex())
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		user models.User
	}{
		{"missing last name", models.User{FirstName: "Ada", Email: "a@x.edu"}},
		{"bad role", models.User{FirstName: "Ada", LastName: "L", Email: "b@x.edu", Role: "leader"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.user); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := userstore.New(db)

	u := models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu"}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, u)
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("err = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Ada", "Lovelace")
	if err := store.SetRole(ctx, u.ID, " Admin "); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", got.Role, models.RoleAdmin)
	}

	if err := store.SetRole(ctx, u.ID, "janitor"); err == nil {
		t.Error("expected error for unknown role")
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestStore_ListIDsAfter_PagesWholeDirectory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := map[primitive.ObjectID]bool{}
	for i := 0; i < 7; i++ {
		u := fixtures.CreateStudent(ctx, "Student", string(rune('A'+i)))
		want[u.ID] = true
	}

	var (
		after primitive.ObjectID
		seen  = map[primitive.ObjectID]bool{}
		pages int
	)
	for {
		ids, err := store.ListIDsAfter(ctx, after, 3)
		if err != nil {
			t.Fatalf("ListIDsAfter: %v", err)
		}
		pages++
		for i, id := range ids {
			if seen[id] {
				t.Fatalf("id %s returned twice", id.Hex())
			}
			if i > 0 && id.Hex() <= ids[i-1].Hex() {
				t.Fatalf("page not ascending at %d", i)
			}
			seen[id] = true
		}
		if len(ids) < 3 {
			break
		}
		after = ids[len(ids)-1]
	}

	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if len(seen) != len(want) {
		t.Errorf("saw %d ids, want %d", len(seen), len(want))
	}
	for id := range want {
		if !seen[id] {
			t.Errorf("missing %s", id.Hex())
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 7 {
		t.Errorf("Count = %d, want 7", n)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Grace", "Hopper")
	f := userstore.NewFetcher(db)

	su := f.FetchUser(ctx, admin.ID.Hex())
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.ID != admin.ID.Hex() || su.Role != models.RoleAdmin || su.Name != "Grace Hopper" {
		t.Errorf("unexpected session user: %+v", su)
	}

	if f.FetchUser(ctx, "not-an-id") != nil {
		t.Error("malformed id should yield nil")
	}
	if f.FetchUser(ctx, primitive.NewObjectID().Hex()) != nil {
		t.Error("unknown id should yield nil")
	}
}
