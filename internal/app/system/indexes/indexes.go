// Package indexes reconciles the Mongo indexes the stores rely on.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionSet struct {
	name   string
	models []mongo.IndexModel
}

/*
EnsureAll is called from EnsureSchema at startup. Reconciling is idempotent:
an index with the same keys and uniqueness is reused (renamed if needed),
one with different options is dropped and recreated. Errors from every
collection are aggregated so startup fails with the full picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string
	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.name), set.models, logger); err != nil {
			problems = append(problems, set.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func desired() []collectionSet {
	return []collectionSet{
		{"users", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_users_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_users_fullnameci__id"),
			},
		}},
		{"groups", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}},
				Options: options.Index().SetName("uniq_groups_nameci").SetUnique(true),
			},
		}},
		{"group_memberships", []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "group_id", Value: 1},
					{Key: "user_id", Value: 1},
					{Key: "group_type", Value: 1},
				},
				Options: options.Index().SetName("uniq_gm_group_user_type").SetUnique(true),
			},
			// audience paging: group_id + group_type equality, keyset on user_id
			{
				Keys: bson.D{
					{Key: "group_id", Value: 1},
					{Key: "group_type", Value: 1},
					{Key: "user_id", Value: 1},
				},
				Options: options.Index().SetName("idx_gm_group_type_user"),
			},
		}},
		{"posts", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_posts_group_created"),
			},
		}},
		{"events", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_events_author_created"),
			},
		}},
		{"event_participants", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetName("idx_ep_event_user"),
			},
		}},
		{"notifications", []mongo.IndexModel{
			// inbox listing, newest first, keyset on _id
			{
				Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("idx_notif_recipient__id"),
			},
			{
				Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}},
				Options: options.Index().SetName("idx_notif_recipient_isread"),
			},
		}},
		{"dispatch_jobs", []mongo.IndexModel{
			// claim order: oldest pending first
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("idx_dj_status_created"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "lease_until", Value: 1}},
				Options: options.Index().SetName("idx_dj_status_lease"),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile one collection                                                   */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listExisting(ctx, coll, logger)
	if err != nil {
		// Namespace may not exist yet; CreateOne will create it.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		var unique *bool
		if m.Options != nil {
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)))

		ex, found := existing[sig]
		switch {
		case found && boolVal(ex.Unique) == boolVal(unique) && (name == "" || ex.Name == name):
			log.Debug("reusing existing index")
			continue
		case found:
			// Different name or uniqueness: drop and recreate below.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
