package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "POAM"

// env keys are lower-cased by the transform, so camelCase leaves need mapping back.
var canonicalKeys = map[string]string{
	"server.trustedproxies": "server.trustedProxies",
	"store.breakerfailures": "store.breakerFailures",
	"store.breakercooldown": "store.breakerCooldown",
	"database.automigrate":  "database.autoMigrate",
	"ratelimit.defaulttier": "ratelimit.defaultTier",
	"ratelimit.tierlookup":  "ratelimit.tierLookup",
	"cache.ttlseconds":      "cache.ttlSeconds",
	"auth.jwtsecret":        "auth.jwtSecret",
	"admin.tokenhash":       "admin.tokenHash",
}

// listKeys are read from the environment as comma-separated lists.
var listKeys = map[string]struct{}{
	"server.trustedProxies": {},
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load layers defaults, an optional JSON file and POAM_ environment variables,
// in that order of precedence, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(DefaultConfig()), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: stat %s: %w", path, err)
			}
		} else if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	transform := func(s, v string) (string, any) {
		// POAM_RATELIMIT__TIERS__FREE__POINTS -> ratelimit.tiers.free.points
		key := strings.TrimPrefix(s, EnvPrefix+"_")
		key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
		if mapped, ok := canonicalKeys[key]; ok {
			key = mapped
		}
		if _, ok := listKeys[key]; ok {
			return key, splitList(v)
		}
		return key, v
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix+"_", ".", transform), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultsMap(cfg Config) map[string]any {
	tiers := make(map[string]any, len(cfg.RateLimit.Tiers))
	for name, tier := range cfg.RateLimit.Tiers {
		tiers[name] = map[string]any{
			"points": tier.Points,
			"window": tier.Window,
		}
	}

	return map[string]any{
		"server": map[string]any{
			"port":           cfg.Server.Port,
			"environment":    cfg.Server.Environment,
			"trustedProxies": cfg.Server.TrustedProxies,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
		"redis": map[string]any{
			"host":     cfg.Redis.Host,
			"port":     cfg.Redis.Port,
			"password": cfg.Redis.Password,
			"db":       cfg.Redis.DB,
		},
		"store": map[string]any{
			"backend":         cfg.Store.Backend,
			"timeout":         cfg.Store.Timeout.String(),
			"breakerFailures": cfg.Store.BreakerFailures,
			"breakerCooldown": cfg.Store.BreakerCooldown.String(),
		},
		"database": map[string]any{
			"dsn":         cfg.Database.DSN,
			"autoMigrate": cfg.Database.AutoMigrate,
		},
		"ratelimit": map[string]any{
			"defaultTier": cfg.RateLimit.DefaultTier,
			"tierLookup":  cfg.RateLimit.TierLookup,
			"tiers":       tiers,
		},
		"cache": map[string]any{
			"ttlSeconds": cfg.Cache.TTLSeconds,
		},
		"auth": map[string]any{
			"jwtSecret": cfg.Auth.JWTSecret,
			"issuer":    cfg.Auth.Issuer,
		},
		"webhook": map[string]any{
			"secret": cfg.Webhook.Secret,
		},
		"admin": map[string]any{
			"tokenHash": cfg.Admin.TokenHash,
		},
	}
}
