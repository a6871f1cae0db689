package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/config"
)

type Tier string

const (
	TierFree         Tier = "free"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"

	// DefaultTier applies whenever a tenant's subscription cannot be determined.
	DefaultTier = TierFree
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierFree, TierProfessional, TierEnterprise:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}

func (t Tier) String() string { return string(t) }

type TierLimits struct {
	Tier            Tier
	PointsPerWindow int
	Window          time.Duration
}

// TierTable is fixed once built; callers get copies.
type TierTable struct {
	limits map[Tier]TierLimits
}

func DefaultTierTable() TierTable {
	return TierTable{limits: map[Tier]TierLimits{
		TierFree:         {Tier: TierFree, PointsPerWindow: 50, Window: 60 * time.Second},
		TierProfessional: {Tier: TierProfessional, PointsPerWindow: 500, Window: 60 * time.Second},
		TierEnterprise:   {Tier: TierEnterprise, PointsPerWindow: 5000, Window: 60 * time.Second},
	}}
}

// TierTableFromConfig overlays configured tiers on the defaults.
func TierTableFromConfig(cfg config.RateLimitConfig) (TierTable, error) {
	table := DefaultTierTable()
	for name, tc := range cfg.Tiers {
		tier, err := ParseTier(name)
		if err != nil {
			return TierTable{}, err
		}
		if tc.Points <= 0 || tc.Window <= 0 {
			return TierTable{}, fmt.Errorf("tier %s: points and window must be positive", name)
		}
		table.limits[tier] = TierLimits{
			Tier:            tier,
			PointsPerWindow: tc.Points,
			Window:          time.Duration(tc.Window) * time.Second,
		}
	}
	return table, nil
}

// Limits returns the limits for t, or the default tier's for an unknown tier.
func (t TierTable) Limits(tier Tier) TierLimits {
	if l, ok := t.limits[tier]; ok {
		return l
	}
	return t.limits[DefaultTier]
}
