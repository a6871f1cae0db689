package ratelimit

import (
	"testing"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWithFree(points, windowSeconds int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Tiers: map[string]config.TierConfig{
			"free": {Points: points, Window: windowSeconds},
		},
	}
}

func TestDefaultTierTable(t *testing.T) {
	table := DefaultTierTable()

	assert.Equal(t, TierLimits{Tier: TierFree, PointsPerWindow: 50, Window: time.Minute}, table.Limits(TierFree))
	assert.Equal(t, 500, table.Limits(TierProfessional).PointsPerWindow)
	assert.Equal(t, 5000, table.Limits(TierEnterprise).PointsPerWindow)
	assert.Equal(t, TierFree, table.Limits(Tier("platinum")).Tier)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Enterprise ")
	require.NoError(t, err)
	assert.Equal(t, TierEnterprise, tier)

	_, err = ParseTier("gold")
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestTierTableFromConfig(t *testing.T) {
	table, err := TierTableFromConfig(config.DefaultConfig().RateLimit)
	require.NoError(t, err)
	assert.Equal(t, DefaultTierTable(), table)

	table, err = TierTableFromConfig(configWithFree(5, 30))
	require.NoError(t, err)
	assert.Equal(t, TierLimits{Tier: TierFree, PointsPerWindow: 5, Window: 30 * time.Second}, table.Limits(TierFree))
	assert.Equal(t, 500, table.Limits(TierProfessional).PointsPerWindow)

	_, err = TierTableFromConfig(configWithFree(0, 30))
	require.Error(t, err)

	_, err = TierTableFromConfig(config.RateLimitConfig{Tiers: map[string]config.TierConfig{"gold": {Points: 1, Window: 1}}})
	require.ErrorIs(t, err, ErrUnknownTier)
}
