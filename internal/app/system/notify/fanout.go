package notify

import (
	"context"
	"errors"
	"iter"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight writes per fan-out.
const DefaultConcurrency = 16

// Result counts the outcome of one fan-out.
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// fanOut issues write for every item with at most limit writes in flight.
// Write failures are counted and kept, never propagated to siblings.
// A source or context error stops new writes, waits for the ones in flight
// and is returned alongside the partial result.
func fanOut[T any](ctx context.Context, op string, limit int, items iter.Seq2[T, error], write func(context.Context, T) error) (Result, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		mu   sync.Mutex
		res  Result
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(limit)

	var stopErr error
	for item, err := range items {
		if err != nil {
			stopErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		res.Attempted++
		g.Go(func() error {
			werr := write(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			if werr != nil {
				res.Failed++
				if len(errs) < maxKeptErrs {
					errs = append(errs, werr)
				}
				return nil
			}
			res.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	if res.Failed > 0 {
		pf := &PartialFailureError{Op: op, Result: res, Errs: errs}
		if stopErr != nil {
			return res, errors.Join(stopErr, pf)
		}
		return res, pf
	}
	return res, stopErr
}

// seqOf adapts a slice to the fanOut source shape.
func seqOf[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// mapSeq transforms the values of a sequence, passing errors through.
func mapSeq[A, B any](seq iter.Seq2[A, error], f func(A) B) iter.Seq2[B, error] {
	return func(yield func(B, error) bool) {
		for a, err := range seq {
			var b B
			if err == nil {
				b = f(a)
			}
			if !yield(b, err) {
				return
			}
		}
	}
}
