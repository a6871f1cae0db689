package ratelimit

import (
	"context"
	"time"
)

// WindowResult is the state of a sliding window right after an admission attempt.
type WindowResult struct {
	Allowed bool
	Count   int       // entries in the window, including this one when allowed
	Oldest  time.Time // earliest entry still in the window
}

// Store is the shared counter and cache backend. Implementations must make
// SlidingWindow atomic per key: prune, count and admit happen as one step.
type Store interface {
	SlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (WindowResult, error)

	// Get reports a miss as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Ping(ctx context.Context) error

	Close() error
}
