package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/circuitbreaker"
	"github.com/rs/zerolog/log"
)

const windowKeyPrefix = "ratelimit:sliding:"

// Quota outcomes reported to an Observer.
const (
	OutcomeAllowed  = "allowed"
	OutcomeRejected = "rejected"
	OutcomeDegraded = "degraded"
)

// Observer receives quota and cache events, typically a metrics recorder.
type Observer interface {
	ObserveQuota(tier string, outcome string)
	ObserveCache(operation string, result string)
}

// Decision is the outcome of one CheckAndConsume call.
type Decision struct {
	Tier      Tier
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time

	// Degraded is set when the store could not be consulted and the request
	// was admitted without enforcement.
	Degraded bool
}

// Err returns ErrQuotaExceeded for a rejected decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %d requests per window, resets at %s", ErrQuotaExceeded, d.Limit, d.ResetAt.UTC().Format(time.RFC3339))
}

// RetryAfter is the wait until the window frees a slot, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

// Enforcer applies per-tier sliding-window quotas and the tenant response
// cache on top of a shared Store.
type Enforcer struct {
	store    Store
	tiers    TierTable
	now      func() time.Time
	timeout  time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	observer Observer
}

type Option func(*Enforcer)

func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) { e.now = now }
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(e *Enforcer) { e.timeout = d }
}

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(e *Enforcer) { e.breaker = cb }
}

func WithObserver(o Observer) Option {
	return func(e *Enforcer) { e.observer = o }
}

func NewEnforcer(store Store, tiers TierTable, opts ...Option) *Enforcer {
	e := &Enforcer{
		store:   store,
		tiers:   tiers,
		now:     time.Now,
		timeout: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Enforcer) Tiers() TierTable {
	return e.tiers
}

// Now reads the enforcer's clock.
func (e *Enforcer) Now() time.Time {
	return e.now()
}

// CheckAndConsume admits or rejects one request for identifier under tier's
// limits. Store failures never reject: the request is admitted and the
// decision is marked Degraded.
func (e *Enforcer) CheckAndConsume(ctx context.Context, identifier string, tier Tier) Decision {
	limits := e.tiers.Limits(tier)
	now := e.now()

	var res WindowResult
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.store.SlidingWindow(ctx, windowKeyPrefix+identifier, limits.PointsPerWindow, limits.Window, now)
		return err
	})
	if err != nil {
		log.Warn().Err(err).
			Str("identifier", identifier).
			Str("tier", limits.Tier.String()).
			Msg("Quota store unavailable, admitting request")
		e.observeQuota(limits.Tier, OutcomeDegraded)
		return Decision{
			Tier:      limits.Tier,
			Allowed:   true,
			Limit:     limits.PointsPerWindow,
			Remaining: limits.PointsPerWindow,
			ResetAt:   now.Add(limits.Window),
			Degraded:  true,
		}
	}

	d := Decision{
		Tier:    limits.Tier,
		Allowed: res.Allowed,
		Limit:   limits.PointsPerWindow,
		ResetAt: res.Oldest.Add(limits.Window),
	}
	if res.Allowed {
		d.Remaining = max(limits.PointsPerWindow-res.Count, 0)
		e.observeQuota(limits.Tier, OutcomeAllowed)
	} else {
		e.observeQuota(limits.Tier, OutcomeRejected)
	}
	return d
}

// call bounds fn by the store timeout and routes it through the breaker.
// The caller is released at the deadline even if fn ignores its context.
// Any failure comes back wrapped in ErrStoreUnavailable.
func (e *Enforcer) call(ctx context.Context, fn func(ctx context.Context) error) error {
	run := func() error {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- fn(ctx)
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var err error
	if e.breaker != nil {
		err = e.breaker.Call(run)
	} else {
		err = run()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Enforcer) observeQuota(tier Tier, outcome string) {
	if e.observer != nil {
		e.observer.ObserveQuota(tier.String(), outcome)
	}
}

func (e *Enforcer) observeCache(operation, result string) {
	if e.observer != nil {
		e.observer.ObserveCache(operation, result)
	}
}
