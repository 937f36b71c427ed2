// Package paging reads keyset cursors and page sizes from list requests.
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the default number of rows in a page.
const PageSize = 50

// MaxPageSize caps ?limit=.
const MaxPageSize = 200

var ErrBadCursor = errors.New("invalid cursor")

// ParseLimit reads ?limit=, defaulting to PageSize and clamping to
// [1, MaxPageSize].
func ParseLimit(r *http.Request) int {
	s := query.Get(r, "limit")
	if s == "" {
		return PageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ParseCursor reads an ObjectID cursor from the named query parameter.
// A missing parameter yields NilObjectID and no error.
func ParseCursor(r *http.Request, name string) (primitive.ObjectID, error) {
	s := query.Get(r, name)
	if s == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrBadCursor
	}
	return id, nil
}

// LimitPlusOne is the fetch size for look-ahead paging.
func LimitPlusOne(limit int) int64 { return int64(limit + 1) }

// TrimPage drops the look-ahead row, if present, and reports whether a
// next page exists.
func TrimPage[T any](rows *[]T, limit int) (hasNext bool) {
	if len(*rows) > limit {
		*rows = (*rows)[:limit]
		return true
	}
	return false
}
