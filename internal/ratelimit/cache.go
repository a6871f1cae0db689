package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "cache:"

// Cache operations and results reported to an Observer.
const (
	CacheOpLookup = "lookup"
	CacheOpStore  = "store"

	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheStored = "stored"
	CacheError  = "error"
)

// CacheOptions configures a cached read route.
type CacheOptions struct {
	TTLSeconds int
	CacheKey   string
}

func (o CacheOptions) Validate() error {
	if o.TTLSeconds <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %d", ErrInvalidCacheOptions, o.TTLSeconds)
	}
	if strings.TrimSpace(o.CacheKey) == "" {
		return fmt.Errorf("%w: cache key is required", ErrInvalidCacheOptions)
	}
	return nil
}

func (o CacheOptions) TTL() time.Duration {
	return time.Duration(o.TTLSeconds) * time.Second
}

// CacheKey returns the store key for key within namespace.
func CacheKey(namespace, key string) string {
	return cacheKeyPrefix + namespace + ":" + key
}

// CacheLookup returns the cached value for key in namespace. A store failure
// is logged and reported as a miss.
func (e *Enforcer) CacheLookup(ctx context.Context, namespace, key string) ([]byte, bool) {
	var (
		value []byte
		found bool
	)
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		value, found, err = e.store.Get(ctx, CacheKey(namespace, key))
		return err
	})
	switch {
	case err != nil:
		log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("Cache lookup failed, treating as miss")
		e.observeCache(CacheOpLookup, CacheError)
		return nil, false
	case !found:
		e.observeCache(CacheOpLookup, CacheMiss)
		return nil, false
	default:
		e.observeCache(CacheOpLookup, CacheHit)
		return value, true
	}
}

// CacheStore writes value under key in namespace with ttl. A store failure is
// logged and the write skipped.
func (e *Enforcer) CacheStore(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	err := e.call(ctx, func(ctx context.Context) error {
		return e.store.Set(ctx, CacheKey(namespace, key), value, ttl)
	})
	if err != nil {
		log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("Cache store failed, skipping write")
		e.observeCache(CacheOpStore, CacheError)
		return
	}
	e.observeCache(CacheOpStore, CacheStored)
}
