package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/rs/zerolog/log"
)

// TierLookup resolves a tenant's subscription tier.
type TierLookup interface {
	TierFor(ctx context.Context, tenantID string) (Tier, error)
}

// StaticTiers answers from a fixed map. Tenants not listed get Default, which
// is TierFree when unset.
type StaticTiers struct {
	Default   Tier
	Overrides map[string]Tier
}

func (s StaticTiers) TierFor(_ context.Context, tenantID string) (Tier, error) {
	if t, ok := s.Overrides[tenantID]; ok {
		return t, nil
	}
	if s.Default == "" {
		return DefaultTier, nil
	}
	return s.Default, nil
}

type OrganizationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
}

const defaultLookupTimeout = time.Second

// OrganizationTiers reads the tier from the organizations table, caching the
// answer in the shared store. Pass Enforcer.Bounded() as the cache so tier
// caching gets the same timeout and breaker as quota checks.
type OrganizationTiers struct {
	orgs     OrganizationFinder
	cache    Store
	ttl      time.Duration
	timeout  time.Duration
	fallback Tier
}

type OrganizationTiersOption func(*OrganizationTiers)

// WithLookupTimeout bounds each organizations table read.
func WithLookupTimeout(d time.Duration) OrganizationTiersOption {
	return func(o *OrganizationTiers) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func NewOrganizationTiers(orgs OrganizationFinder, cache Store, fallback Tier, opts ...OrganizationTiersOption) *OrganizationTiers {
	if fallback == "" {
		fallback = DefaultTier
	}
	o := &OrganizationTiers{
		orgs:     orgs,
		cache:    cache,
		ttl:      5 * time.Minute,
		timeout:  defaultLookupTimeout,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OrganizationTiers) TierFor(ctx context.Context, tenantID string) (Tier, error) {
	cacheKey := fmt.Sprintf("tier:%s", tenantID)

	if o.cache != nil {
		if cached, ok, err := o.cache.Get(ctx, cacheKey); err == nil && ok {
			if tier, err := ParseTier(string(cached)); err == nil {
				return tier, nil
			}
		}
	}

	org, err := o.findOrganization(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return o.fallback, nil
	}

	tier, err := ParseTier(org.Tier)
	if err != nil {
		return "", err
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, cacheKey, []byte(tier), o.ttl); err != nil {
			log.Debug().Err(err).Str("tenant_id", tenantID).Msg("Failed to cache tenant tier")
		}
	}
	return tier, nil
}

// findOrganization releases the caller at the lookup deadline even when the
// finder does not honour its context.
func (o *OrganizationTiers) findOrganization(ctx context.Context, tenantID string) (*models.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type result struct {
		org *models.Organization
		err error
	}
	done := make(chan result, 1)
	go func() {
		org, err := o.orgs.FindByID(ctx, tenantID)
		done <- result{org: org, err: err}
	}()

	select {
	case r := <-done:
		return r.org, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("organization lookup: %w", ctx.Err())
	}
}

// ResolveTier asks lookup for the tenant's tier and falls back to DefaultTier
// on any error or when there is no tenant.
func ResolveTier(ctx context.Context, lookup TierLookup, tenantID string) Tier {
	if lookup == nil || tenantID == "" {
		return DefaultTier
	}
	tier, err := lookup.TierFor(ctx, tenantID)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("Tier lookup failed, using default tier")
		return DefaultTier
	}
	return tier
}
