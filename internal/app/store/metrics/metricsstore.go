package metricsstore

import (
	"context"
	"strings"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bucket is the dashboard classification of one user.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketAdmin
	BucketStudent
	BucketStaff
)

// Classify places a user in exactly one bucket. Rules are checked in order
// and the first match wins:
//  1. admin or superadmin role: admins, whatever the function
//  2. function "Etudiant": students
//  3. any other function: staff
//  4. no function: none
func Classify(role string, function *string) Bucket {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return BucketAdmin
	}
	if function == nil {
		return BucketNone
	}
	if *function == models.FunctionStudent {
		return BucketStudent
	}
	return BucketStaff
}

// UserStats is the dashboard stats payload.
type UserStats struct {
	Students int64 `json:"students"`
	Staff    int64 `json:"staff"`
	Admins   int64 `json:"admins"`
}

// FetchUserStats scans the users collection once and tallies Classify
// results. Unlike FetchDashboardCounts this is not tolerant: a scan error
// is returned, since partial stats would be wrong rather than missing.
func FetchUserStats(ctx context.Context, db *mongo.Database) (UserStats, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0, "role": 1, "function": 1})
	cur, err := db.Collection("users").Find(ctx, bson.M{}, opts)
	if err != nil {
		return UserStats{}, err
	}
	defer cur.Close(ctx)

	var out UserStats
	for cur.Next(ctx) {
		var row struct {
			Role     string  `bson:"role"`
			Function *string `bson:"function"`
		}
		if err := cur.Decode(&row); err != nil {
			return UserStats{}, err
		}
		switch Classify(row.Role, row.Function) {
		case BucketAdmin:
			out.Admins++
		case BucketStudent:
			out.Students++
		case BucketStaff:
			out.Staff++
		}
	}
	return out, cur.Err()
}

// Counts is the set of collection totals shown on the admin dashboard.
type Counts struct {
	Users           int64 `json:"users"`
	Groups          int64 `json:"groups"`
	Events          int64 `json:"events"`
	Posts           int64 `json:"posts"`
	Notifications   int64 `json:"notifications"`
	PendingDispatch int64 `json:"pending_dispatch"`
}

// FetchDashboardCounts returns high-level totals.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	for _, c := range []struct {
		coll   string
		filter bson.M
		dst    *int64
	}{
		{"users", bson.M{}, &out.Users},
		{"groups", bson.M{}, &out.Groups},
		{"events", bson.M{}, &out.Events},
		{"posts", bson.M{}, &out.Posts},
		{"notifications", bson.M{}, &out.Notifications},
		{"dispatch_jobs", bson.M{"status": bson.M{"$in": bson.A{models.DispatchPending, models.DispatchRunning}}}, &out.PendingDispatch},
	} {
		if n, err := db.Collection(c.coll).CountDocuments(ctx, c.filter); err == nil {
			*c.dst = n
		}
	}
	return out
}
