package healthcheck

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchable struct {
	fail atomic.Bool
}

func (s *switchable) Check(context.Context) error {
	if s.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestCheckerMarksUnhealthyAfterMaxFailures(t *testing.T) {
	store := &switchable{}
	checker := NewChecker(Config{MaxFailures: 2}, Probe{Name: "quota_store", Check: store.Check})

	checker.CheckAll()
	assert.Equal(t, Healthy, checker.OverallHealth())

	store.fail.Store(true)
	checker.CheckAll()
	assert.Equal(t, Healthy, checker.OverallHealth(), "one failure is tolerated")
	checker.CheckAll()
	assert.Equal(t, Degraded, checker.OverallHealth())

	status := checker.GetAllStatus()["quota_store"]
	assert.False(t, status.IsHealthy)
	assert.Equal(t, 2, status.FailureCount)
	assert.Equal(t, "connection refused", status.LastError)

	store.fail.Store(false)
	checker.CheckAll()
	assert.Equal(t, Healthy, checker.OverallHealth())
	assert.Zero(t, checker.GetAllStatus()["quota_store"].FailureCount)
}

func TestCriticalProbeMakesServiceUnhealthy(t *testing.T) {
	db := &switchable{}
	store := &switchable{}
	checker := NewChecker(Config{MaxFailures: 1},
		Probe{Name: "database", Critical: true, Check: db.Check},
		Probe{Name: "quota_store", Check: store.Check},
	)

	store.fail.Store(true)
	checker.CheckAll()
	require.Equal(t, Degraded, checker.OverallHealth())

	db.fail.Store(true)
	checker.CheckAll()
	assert.Equal(t, Unhealthy, checker.OverallHealth())
	assert.Equal(t, "unhealthy", checker.OverallHealth().String())
}

func TestStartStop(t *testing.T) {
	calls := atomic.Int32{}
	checker := NewChecker(Config{}, Probe{Name: "x", Check: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	checker.Start()
	checker.Start()
	checker.Stop()
	checker.Stop()

	assert.EqualValues(t, 1, calls.Load())
}
