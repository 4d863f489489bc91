package helpers

import (
	"context"
	"fmt"
	"time"
)

// Race runs fn on its own goroutine and waits at most d for an answer.
//
// When the timer wins, Race returns an error wrapping context.DeadlineExceeded and
// fn keeps running on a context detached from the caller's cancellation; its
// result is dropped. Cancelling ctx itself still ends the wait early.
func Race[T any](ctx context.Context, d time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn(context.WithoutCancel(ctx))
		done <- result{val: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		return zero, fmt.Errorf("%s: no answer after %s: %w", op, d, context.DeadlineExceeded)
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// RaceErr is Race for calls that only return an error.
func RaceErr(ctx context.Context, d time.Duration, op string, fn func(context.Context) error) error {
	_, err := Race(ctx, d, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
