package notify

import (
	"context"
	"iter"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPageSize is the number of ids fetched per audience page.
const DefaultPageSize = 500

// Resolver computes notification audiences. Audiences are lazy sequences
// that page through the backing collection; every range over a sequence
// starts a fresh scan, so a sequence can be iterated more than once.
type Resolver struct {
	users    UserDirectory
	members  MembershipIndex
	pageSize int64
}

// NewResolver builds a Resolver. pageSize <= 0 selects DefaultPageSize.
func NewResolver(users UserDirectory, members MembershipIndex, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Resolver{users: users, members: members, pageSize: int64(pageSize)}
}

// EventAudience yields every user except actorID.
func (r *Resolver) EventAudience(ctx context.Context, actorID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.scan(ctx, actorID, func(after primitive.ObjectID) ([]primitive.ObjectID, error) {
		return r.users.ListIDsAfter(ctx, after, r.pageSize)
	})
}

// PostAudience yields every forum member of groupID except actorID.
func (r *Resolver) PostAudience(ctx context.Context, groupID, actorID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.scan(ctx, actorID, func(after primitive.ObjectID) ([]primitive.ObjectID, error) {
		return r.members.ListMemberIDsAfter(ctx, groupID, models.GroupTypeForum, after, r.pageSize)
	})
}

type pageFunc func(after primitive.ObjectID) ([]primitive.ObjectID, error)

// scan walks pages until a short page. A page or context error is yielded
// once and ends the sequence.
func (r *Resolver) scan(ctx context.Context, actorID primitive.ObjectID, page pageFunc) iter.Seq2[primitive.ObjectID, error] {
	return func(yield func(primitive.ObjectID, error) bool) {
		var after primitive.ObjectID
		for {
			if err := ctx.Err(); err != nil {
				yield(primitive.NilObjectID, err)
				return
			}
			ids, err := page(after)
			if err != nil {
				yield(primitive.NilObjectID, err)
				return
			}
			for _, id := range ids {
				if id == actorID {
					continue
				}
				if !yield(id, nil) {
					return
				}
			}
			if int64(len(ids)) < r.pageSize {
				return
			}
			after = ids[len(ids)-1]
		}
	}
}

// Collect drains an audience into a slice.
func Collect(seq iter.Seq2[primitive.ObjectID, error]) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for id, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, id)
	}
	return out, nil
}
