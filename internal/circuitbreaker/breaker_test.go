package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errStore = errors.New("store down")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := New(Config{Name: "store", MaxFailures: 2, Cooldown: 10 * time.Second, Now: clock.Now})

	fail := func() error { return errStore }
	require.ErrorIs(t, cb.Call(fail), errStore)
	assert.Equal(t, StateClosed, cb.State())
	require.ErrorIs(t, cb.Call(fail), errStore)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := New(Config{MaxFailures: 1, Cooldown: 10 * time.Second, Now: clock.Now})

	require.Error(t, cb.Call(func() error { return errStore }))
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(10 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Metrics().FailureCount)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := New(Config{MaxFailures: 1, Cooldown: time.Second, Now: clock.Now})

	require.Error(t, cb.Call(func() error { return errStore }))
	clock.Advance(time.Second)
	require.Error(t, cb.Call(func() error { return errStore }))
	assert.Equal(t, StateOpen, cb.State())
	require.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	cb := New(Config{MaxFailures: 2})

	require.Error(t, cb.Call(func() error { return errStore }))
	require.NoError(t, cb.Call(func() error { return nil }))
	require.Error(t, cb.Call(func() error { return errStore }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReset(t *testing.T) {
	cb := New(Config{MaxFailures: 1})
	require.Error(t, cb.Call(func() error { return errStore }))
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}
