package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c      *mongo.Collection
	groups *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("group_memberships"),
		groups: db.Collection("groups"),
	}
}

var ErrDuplicateMembership = errors.New("user is already a member of this group")

// Add creates a membership. groupType defaults to forum. Returns
// mongo.ErrNoDocuments if the group does not exist.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, groupType string) (models.GroupMembership, error) {
	if groupType == "" {
		groupType = models.GroupTypeForum
	}
	if err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Err(); err != nil {
		return models.GroupMembership{}, err
	}

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		GroupType: groupType,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Remove deletes every membership of the user in the group. Returns the
// number of documents deleted.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Exists checks if the user has a membership of groupType in the group.
func (s *Store) Exists(ctx context.Context, groupID, userID primitive.ObjectID, groupType string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID, "group_type": groupType}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListMemberIDsAfter returns up to limit user ids holding a groupType
// membership in the group, ascending by user_id and strictly greater than
// after. Audience resolution pages with this so large groups are never
// loaded at once.
func (s *Store) ListMemberIDsAfter(ctx context.Context, groupID primitive.ObjectID, groupType string, after primitive.ObjectID, limit int64) ([]primitive.ObjectID, error) {
	filter := bson.M{"group_id": groupID, "group_type": groupType}
	if !after.IsZero() {
		filter["user_id"] = bson.M{"$gt": after}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "user_id", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"user_id": 1, "_id": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := make([]primitive.ObjectID, 0, limit)
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.UserID)
	}
	return ids, cur.Err()
}

// CountByGroup returns the number of memberships in a group, optionally
// filtered by group type.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, groupType string) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if groupType != "" {
		filter["group_type"] = groupType
	}
	return s.c.CountDocuments(ctx, filter)
}

// ListByGroup returns memberships for a group, optionally filtered by group type.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, groupType string) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if groupType != "" {
		filter["group_type"] = groupType
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}
