// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupTypeForum is the only group kind today. The discriminator is stored
// on every membership so other kinds can share the collection later.
const GroupTypeForum = "forum"

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (group_id, user_id, group_type).
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	GroupType string             `bson:"group_type" json:"group_type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
