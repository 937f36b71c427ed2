// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	membershipstore "github.com/dalemusser/campushub/internal/app/store/memberships"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsForumMember returns true if the user holds a forum membership in the
// group according to the authoritative group_memberships collection.
func IsForumMember(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	return membershipstore.New(db).Exists(ctx, groupID, userID, models.GroupTypeForum)
}

// CanPost reports whether the current request user may publish in the group.
// Only forum members can post. Admins are not exempt.
// Returns an error if the database check fails, allowing callers to distinguish
// between "not authorized" (false, nil) and "database error" (false, err).
func CanPost(ctx context.Context, db *mongo.Database, r *http.Request, groupID primitive.ObjectID) (bool, error) {
	uid, ok := authz.ActorID(r)
	if !ok {
		return false, nil
	}
	return IsForumMember(ctx, db, groupID, uid)
}
