package ratelimit

import (
	"context"
	"time"
)

// Bounded returns a view of the enforcer's store in which every call is
// subject to the store timeout and the circuit breaker. Collaborators that
// share the store, such as the tier cache, should use it instead of the raw
// store.
func (e *Enforcer) Bounded() Store {
	return boundedStore{e: e}
}

type boundedStore struct {
	e *Enforcer
}

func (b boundedStore) SlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (WindowResult, error) {
	var res WindowResult
	err := b.e.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = b.e.store.SlidingWindow(ctx, key, limit, window, now)
		return err
	})
	if err != nil {
		return WindowResult{}, err
	}
	return res, nil
}

func (b boundedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := b.e.call(ctx, func(ctx context.Context) error {
		var err error
		value, found, err = b.e.store.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (b boundedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.e.call(ctx, func(ctx context.Context) error {
		return b.e.store.Set(ctx, key, value, ttl)
	})
}

func (b boundedStore) Ping(ctx context.Context) error {
	return b.e.call(ctx, b.e.store.Ping)
}

// Close is a no-op; the enforcer does not own the store's lifecycle.
func (b boundedStore) Close() error {
	return nil
}
