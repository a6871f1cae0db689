package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Scores are unix milliseconds. Entries scored at or before now-window are
// outside the window.
const slidingWindowLua = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`

var slidingWindowScript = redis.NewScript(slidingWindowLua)

type RedisStore struct {
	redis *storage.RedisClient
}

func NewRedisStore(client *storage.RedisClient) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) SlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (WindowResult, error) {
	vals, err := s.redis.RunScript(ctx, slidingWindowScript, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return WindowResult{}, fmt.Errorf("sliding window %s: %w", key, err)
	}
	return windowResultFrom(vals)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.redis.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.redis.Set(ctx, key, value, ttl)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

func windowResultFrom(vals []int64) (WindowResult, error) {
	if len(vals) != 3 {
		return WindowResult{}, fmt.Errorf("sliding window: unexpected reply %v", vals)
	}
	return WindowResult{
		Allowed: vals[0] == 1,
		Count:   int(vals[1]),
		Oldest:  time.UnixMilli(vals[2]),
	}, nil
}

func scriptArgs(limit int, window time.Duration, now time.Time) []string {
	return []string{
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(window.Milliseconds(), 10),
		strconv.Itoa(limit),
		uuid.NewString(),
	}
}
