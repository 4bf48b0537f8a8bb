// Package retry provides the generic backoff helper used by the graph
// builder's LLM extraction calls. Storage operations never retry here —
// retry is the caller's concern per spec.md §5.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config is a backoff schedule: a fixed list of delays, doubling by
// convention, capped at Ceiling.
type Config struct {
	Delays  []time.Duration
	Ceiling time.Duration
}

// Default is exponential backoff starting at 500ms, capped at 8s, three retries.
var Default = Config{
	Delays:  []time.Duration{500 * time.Millisecond, 1 * time.Second, 2 * time.Second},
	Ceiling: 8 * time.Second,
}

// WithMaxRetries builds a Config with n delays doubling from 500ms, capped at 8s.
func WithMaxRetries(n int) Config {
	if n <= 0 {
		return Config{Ceiling: 8 * time.Second}
	}
	delays := make([]time.Duration, n)
	d := 500 * time.Millisecond
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return Config{Delays: delays, Ceiling: 8 * time.Second}
}

// Do executes fn, retrying per cfg when retryable(err) is true. Honors ctx
// cancellation between attempts. Returns the last error if retries are
// exhausted or a non-retryable error is hit immediately.
func Do[T any](ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	if !retryable(err) {
		return result, err
	}

	for i, delay := range cfg.Delays {
		if delay > cfg.Ceiling {
			delay = cfg.Ceiling
		}

		slog.Warn("retrying after failure",
			"operation", operation,
			"attempt", i+2,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("%s: cancelled during retry: %w", operation, ctx.Err())
		case <-time.After(delay):
		}

		result, err = fn()
		if err == nil {
			slog.Info("retry succeeded", "operation", operation, "attempt", i+2)
			return result, nil
		}
		if !retryable(err) {
			return result, err
		}
	}

	var zero T
	slog.Error("retries exhausted", "operation", operation, "attempts", len(cfg.Delays)+1)
	return zero, fmt.Errorf("%s: retries exhausted: %w", operation, err)
}
