package timeout

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// the portal is slow to render sometimes, two minutes covers the worst we have seen.
const DefaultDuration = 2 * time.Minute

const DefaultPollInterval = 250 * time.Millisecond

// Run calls fn with a context that expires after d. If fn has not finished by
// then, fallback is returned with a nil error so the caller can carry on.
// Any other error from fn is returned as is, and so is the cancellation of
// parent.
//
// fn is expected to honor its context, if it does not, Run still returns on
// time and fn's result is discarded once it eventually finishes.
func Run[T any](parent context.Context, name string, d time.Duration, fn func(ctx context.Context) (T, error), fallback T) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value: value, err: err}
	}()

	var res result
	select {
	case res = <-done:
		if res.err == nil {
			return res.value, nil
		}
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if err := parent.Err(); err != nil {
		return fallback, err
	}
	if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Warn("timeout occurred, skipping", "op", name, "after", d.String())
		return fallback, nil
	}
	return fallback, res.err
}

// ErrNotReady can be returned by a Poll check to keep polling.
var ErrNotReady = errors.New("not ready")

// Poll calls check every interval until it reports done, returns an error
// other than ErrNotReady or ctx ends, in which case ctx.Err() is returned.
func Poll[T any](ctx context.Context, interval time.Duration, check func(ctx context.Context) (T, bool, error)) (T, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		value, done, err := check(ctx)
		if err != nil && !errors.Is(err, ErrNotReady) {
			return value, err
		}
		if done {
			return value, nil
		}
		if err != nil {
			slog.Debug("still waiting", "err", err)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
