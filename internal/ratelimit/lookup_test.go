package ratelimit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/circuitbreaker"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrgs struct {
	orgs  map[string]*models.Organization
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeOrgs) FindByID(_ context.Context, id string) (*models.Organization, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.orgs[id], nil
}

func TestStaticTiers(t *testing.T) {
	ctx := context.Background()

	tier, err := StaticTiers{}.TierFor(ctx, "orgA")
	require.NoError(t, err)
	assert.Equal(t, TierFree, tier)

	lookup := StaticTiers{Default: TierProfessional, Overrides: map[string]Tier{"orgB": TierEnterprise}}
	tier, _ = lookup.TierFor(ctx, "orgA")
	assert.Equal(t, TierProfessional, tier)
	tier, _ = lookup.TierFor(ctx, "orgB")
	assert.Equal(t, TierEnterprise, tier)
}

func TestOrganizationTiersCachesLookups(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*models.Organization{
		"orgA": {ID: "orgA", Tier: "enterprise"},
	}}
	lookup := NewOrganizationTiers(orgs, NewMemoryStore(), "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tier, err := lookup.TierFor(ctx, "orgA")
		require.NoError(t, err)
		assert.Equal(t, TierEnterprise, tier)
	}
	assert.EqualValues(t, 1, orgs.calls.Load())
}

func TestOrganizationTiersUnknownTenantGetsFallback(t *testing.T) {
	lookup := NewOrganizationTiers(&fakeOrgs{}, nil, "")

	tier, err := lookup.TierFor(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, TierFree, tier)
}

func TestResolveTier(t *testing.T) {
	ctx := context.Background()
	failing := NewOrganizationTiers(&fakeOrgs{err: errors.New("db down")}, nil, "")

	assert.Equal(t, TierFree, ResolveTier(ctx, failing, "orgA"))
	assert.Equal(t, TierFree, ResolveTier(ctx, nil, "orgA"))
	assert.Equal(t, TierFree, ResolveTier(ctx, StaticTiers{Default: TierEnterprise}, ""))
	assert.Equal(t, TierEnterprise, ResolveTier(ctx, StaticTiers{Default: TierEnterprise}, "orgA"))

	badTier := NewOrganizationTiers(&fakeOrgs{orgs: map[string]*models.Organization{"orgA": {Tier: "gold"}}}, nil, "")
	assert.Equal(t, TierFree, ResolveTier(ctx, badTier, "orgA"))
}

func TestOrganizationTiersFallsBackToDatabaseWhenCacheFails(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*models.Organization{
		"orgA": {ID: "orgA", Tier: "professional"},
	}}
	store := &failingStore{}
	lookup := NewOrganizationTiers(orgs, NewEnforcer(store, DefaultTierTable()).Bounded(), "")

	tier, err := lookup.TierFor(context.Background(), "orgA")
	require.NoError(t, err)
	assert.Equal(t, TierProfessional, tier)
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestOrganizationTiersHangingCacheIsBounded(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*models.Organization{
		"orgA": {ID: "orgA", Tier: "enterprise"},
	}}
	enforcer := NewEnforcer(&hangingStore{delay: time.Second}, DefaultTierTable(), WithTimeout(20*time.Millisecond))
	lookup := NewOrganizationTiers(orgs, enforcer.Bounded(), "")

	started := time.Now()
	tier := ResolveTier(context.Background(), lookup, "orgA")
	assert.Equal(t, TierEnterprise, tier)
	assert.Less(t, time.Since(started), 500*time.Millisecond)
}

func TestOrganizationTiersBreakerSkipsDeadCache(t *testing.T) {
	orgs := &fakeOrgs{orgs: map[string]*models.Organization{
		"orgA": {ID: "orgA", Tier: "enterprise"},
	}}
	store := &failingStore{}
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "quota-store", MaxFailures: 2, Cooldown: time.Minute})
	lookup := NewOrganizationTiers(orgs, NewEnforcer(store, DefaultTierTable(), WithBreaker(breaker)).Bounded(), "")

	for i := 0; i < 5; i++ {
		assert.Equal(t, TierEnterprise, ResolveTier(context.Background(), lookup, "orgA"))
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestOrganizationTiersFinderErrorUsesDefaultTier(t *testing.T) {
	orgs := &fakeOrgs{err: errors.New("connection refused")}
	lookup := NewOrganizationTiers(orgs, NewEnforcer(NewMemoryStore(), DefaultTierTable()).Bounded(), TierProfessional)

	_, err := lookup.TierFor(context.Background(), "orgA")
	require.Error(t, err)
	assert.Equal(t, DefaultTier, ResolveTier(context.Background(), lookup, "orgA"))
}

func TestOrganizationTiersSlowFinderIsBounded(t *testing.T) {
	orgs := &fakeOrgs{
		orgs:  map[string]*models.Organization{"orgA": {ID: "orgA", Tier: "enterprise"}},
		delay: time.Second,
	}
	lookup := NewOrganizationTiers(orgs, nil, "", WithLookupTimeout(20*time.Millisecond))

	started := time.Now()
	_, err := lookup.TierFor(context.Background(), "orgA")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, DefaultTier, ResolveTier(context.Background(), lookup, "orgA"))
	assert.Less(t, time.Since(started), 500*time.Millisecond)
}
