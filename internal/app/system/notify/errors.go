package notify

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrPartialFanout matches every *PartialFailureError.
	ErrPartialFanout = errors.New("partial fan-out failure")
)

// NotFoundError reports a trigger that references a missing document.
// Dispatch aborts before any write when it is returned.
type NotFoundError struct {
	Kind string // "event", "group" or "user"
	ID   primitive.ObjectID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID.Hex())
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// maxKeptErrs caps how many per-row errors a PartialFailureError carries.
const maxKeptErrs = 10

// PartialFailureError reports that some independent writes failed while
// others succeeded. The successful rows stay written.
type PartialFailureError struct {
	Op     string // "participants" or "notifications"
	Result Result
	Errs   []error // first few row errors
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d writes failed", e.Op, e.Result.Failed, e.Result.Attempted)
	if len(e.Errs) > 0 {
		b.WriteString(": ")
		b.WriteString(e.Errs[0].Error())
	}
	return b.String()
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFanout }

func (e *PartialFailureError) Unwrap() []error { return e.Errs }

// isMissing reports whether a store lookup failed because the document
// does not exist.
func isMissing(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, ErrNotFound)
}

// lookupErr converts a store lookup error for kind/id into the dispatch
// error taxonomy.
func lookupErr(kind string, id primitive.ObjectID, err error) error {
	if isMissing(err) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return fmt.Errorf("load %s %s: %w", kind, id.Hex(), err)
}

// Retryable reports whether running the trigger again could succeed where
// this run did not. Missing documents and per-row partial failures are
// final. A failed audience page or a canceled run is retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*PartialFailureError); ok {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if Retryable(e) {
				return true
			}
		}
		return false
	}
	if inner := errors.Unwrap(err); inner != nil {
		return Retryable(inner)
	}
	return true
}
