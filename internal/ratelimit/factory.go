package ratelimit

import (
	"fmt"

	"github.com/isaacmuchunu/poam-sub001/internal/config"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
)

// NewStore connects the backend named by cfg.Store.Backend.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "valkey":
		client, err := storage.NewValkey(cfg.Redis.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return NewValkeyStore(client), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis", "":
		client, err := storage.NewRedis(cfg.Redis.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
