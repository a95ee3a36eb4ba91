package resilience

import (
	"context"
	"time"
)

// PollConfig controls a bounded fixed-interval poll for API calls that
// report "still in progress" instead of a result.
type PollConfig struct {
	// MaxExtraAttempts is the number of additional calls made after the
	// first one reports in-progress. Default: 5.
	MaxExtraAttempts int

	// Interval is the pause between polls. Default: 500ms.
	Interval time.Duration
}

// DefaultPollConfig returns the standard poll configuration for hunter.io,
// whose finder and verifier return HTTP 202 while a lookup is running.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxExtraAttempts: 5,
		Interval:         500 * time.Millisecond,
	}
}

// Poll calls fn until it reports done, the extra-attempt budget is spent, or
// ctx ends. The last value from fn is returned either way; exhausting the
// budget is not an error, and callers treat a still-pending result as "no data".
func Poll[T any](ctx context.Context, cfg PollConfig, fn func(ctx context.Context) (val T, done bool, err error)) (T, error) {
	if cfg.MaxExtraAttempts <= 0 {
		cfg.MaxExtraAttempts = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}

	val, done, err := fn(ctx)
	if err != nil || done {
		return val, err
	}

	for attempt := 0; attempt < cfg.MaxExtraAttempts; attempt++ {
		if !sleep(ctx, cfg.Interval) {
			return val, ctx.Err()
		}
		val, done, err = fn(ctx)
		if err != nil || done {
			return val, err
		}
	}

	return val, nil
}
