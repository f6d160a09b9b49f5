package utils

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut is returned when an operation exceeds its budget.
var ErrTimedOut = errors.New("operation timed out")

type timedResult[T any] struct {
	val T
	err error
}

// RunWithTimeout executes fn with a hard budget.
//
// Each webhook turn has one provider-imposed deadline; sub-operations
// (extraction strategies, remote lookups) get a slice of it through this
// helper so no single slow path can starve the whole turn.
//
// On expiry the zero value and ErrTimedOut are returned. The spawned fn
// keeps running until its context cancels, but its result is discarded;
// fn must therefore honor ctx and must not hold locks across the call.
func RunWithTimeout[T any](ctx context.Context, budget time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if budget <= 0 {
		return zero, ErrTimedOut
	}

	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ch := make(chan timedResult[T], 1)
	go func() {
		v, err := fn(runCtx)
		ch <- timedResult[T]{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrTimedOut
	}
}
