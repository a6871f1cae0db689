package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Redis     RedisConfig     `koanf:"redis"`
	Store     StoreConfig     `koanf:"store"`
	Database  DatabaseConfig  `koanf:"database"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Cache     CacheConfig     `koanf:"cache"`
	Auth      AuthConfig      `koanf:"auth"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Admin     AdminConfig     `koanf:"admin"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	Environment string `koanf:"environment"`
	// TrustedProxies lists the addresses or CIDRs allowed to set
	// X-Forwarded-For. Empty trusts none and uses the socket peer.
	TrustedProxies []string `koanf:"trustedProxies"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

func (r RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StoreConfig selects the shared counter/cache backend used by the quota layer.
type StoreConfig struct {
	Backend         string        `koanf:"backend"` // "redis", "valkey" or "memory"
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures int           `koanf:"breakerFailures"`
	BreakerCooldown time.Duration `koanf:"breakerCooldown"`
}

type DatabaseConfig struct {
	DSN         string `koanf:"dsn"`
	AutoMigrate bool   `koanf:"autoMigrate"`
}

type RateLimitConfig struct {
	DefaultTier string                `koanf:"defaultTier"`
	TierLookup  string                `koanf:"tierLookup"` // "static" or "organization"
	Tiers       map[string]TierConfig `koanf:"tiers"`
}

type TierConfig struct {
	Points int `koanf:"points"`
	Window int `koanf:"window"` // seconds
}

type CacheConfig struct {
	TTLSeconds int `koanf:"ttlSeconds"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwtSecret"`
	Issuer    string `koanf:"issuer"`
}

type WebhookConfig struct {
	Secret string `koanf:"secret"`
}

// AdminConfig guards the operational endpoints with a bcrypt hash of the
// admin token. An empty hash disables them.
type AdminConfig struct {
	TokenHash string `koanf:"tokenHash"`
}

var knownTiers = []string{"free", "professional", "enterprise"}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Store: StoreConfig{
			Backend:         "redis",
			Timeout:         250 * time.Millisecond,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:         "host=localhost user=poam password=poam dbname=poam port=5432 sslmode=disable",
			AutoMigrate: true,
		},
		RateLimit: RateLimitConfig{
			DefaultTier: "free",
			TierLookup:  "organization",
			Tiers: map[string]TierConfig{
				"free":         {Points: 50, Window: 60},
				"professional": {Points: 500, Window: 60},
				"enterprise":   {Points: 5000, Window: 60},
			},
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
		},
	}
}

// Validate rejects configurations the quota layer cannot run with.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}

	switch c.Store.Backend {
	case "redis", "valkey", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not supported", c.Store.Backend))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("store.timeout must be positive"))
	}

	switch c.RateLimit.TierLookup {
	case "static", "organization":
	default:
		errs = append(errs, fmt.Errorf("ratelimit.tierLookup %q is not supported", c.RateLimit.TierLookup))
	}
	if !isKnownTier(c.RateLimit.DefaultTier) {
		errs = append(errs, fmt.Errorf("ratelimit.defaultTier %q is not a known tier", c.RateLimit.DefaultTier))
	}
	for _, name := range knownTiers {
		tier, ok := c.RateLimit.Tiers[name]
		if !ok {
			errs = append(errs, fmt.Errorf("ratelimit.tiers.%s is missing", name))
			continue
		}
		if tier.Points <= 0 || tier.Window <= 0 {
			errs = append(errs, fmt.Errorf("ratelimit.tiers.%s must have positive points and window", name))
		}
	}
	for name := range c.RateLimit.Tiers {
		if !isKnownTier(name) {
			errs = append(errs, fmt.Errorf("ratelimit.tiers.%s is not a known tier", name))
		}
	}

	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, errors.New("cache.ttlSeconds must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func isKnownTier(name string) bool {
	for _, known := range knownTiers {
		if name == known {
			return true
		}
	}
	return false
}
