package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	valkey "github.com/valkey-io/valkey-go"
)

var slidingWindowValkey = valkey.NewLuaScript(slidingWindowLua)

// ValkeyStore runs the same window script as RedisStore through valkey-go.
type ValkeyStore struct {
	valkey *storage.ValkeyClient
}

func NewValkeyStore(client *storage.ValkeyClient) *ValkeyStore {
	return &ValkeyStore{valkey: client}
}

func (s *ValkeyStore) SlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (WindowResult, error) {
	vals, err := s.valkey.RunScript(ctx, slidingWindowValkey, []string{key}, scriptArgs(limit, window, now))
	if err != nil {
		return WindowResult{}, fmt.Errorf("sliding window %s: %w", key, err)
	}
	return windowResultFrom(vals)
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.valkey.Get(ctx, key)
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.valkey.Set(ctx, key, value, ttl)
}

func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.valkey.Ping(ctx)
}

func (s *ValkeyStore) Close() error {
	return s.valkey.Close()
}
