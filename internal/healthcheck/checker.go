package healthcheck

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Probe checks one dependency. A Critical probe that is unhealthy makes the
// whole service unhealthy; any other failing probe only degrades it.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Checker probes dependencies periodically and keeps their latest status.
type Checker struct {
	mu           sync.RWMutex
	probes       []Probe
	healthStatus map[string]*Status
	interval     time.Duration
	timeout      time.Duration
	maxFailures  int
	stopChan     chan struct{}
	running      bool
}

type Config struct {
	Interval    time.Duration // default: 10s
	Timeout     time.Duration // default: 2s
	MaxFailures int           // failures before marking unhealthy (default: 3)
}

func NewChecker(cfg Config, probes ...Probe) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}

	checker := &Checker{
		probes:       probes,
		healthStatus: make(map[string]*Status, len(probes)),
		interval:     cfg.Interval,
		timeout:      cfg.Timeout,
		maxFailures:  cfg.MaxFailures,
		stopChan:     make(chan struct{}),
	}

	for _, p := range probes {
		checker.healthStatus[p.Name] = &Status{
			Target:    p.Name,
			IsHealthy: true, // Assume healthy initially
			LastCheck: time.Now(),
		}
	}

	return checker
}

// Start runs one round of checks immediately and then one per interval.
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	log.Info().Int("probes", len(c.probes)).Dur("interval", c.interval).Msg("Starting dependency health checks")

	c.CheckAll()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.CheckAll()
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stopChan)
		c.running = false
		log.Info().Msg("Health checker stopped")
	}
}

// CheckAll runs every probe concurrently and waits for them.
func (c *Checker) CheckAll() {
	var wg sync.WaitGroup

	for _, p := range c.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			c.check(p)
		}(p)
	}

	wg.Wait()
}

func (c *Checker) check(p Probe) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := p.Check(ctx); err != nil {
		c.recordFailure(p.Name, err)
		return
	}
	c.recordSuccess(p.Name)
}

func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.healthStatus[name]
	status.LastCheck = time.Now()
	status.LastSuccess = status.LastCheck
	status.FailureCount = 0
	status.LastError = ""

	if !status.IsHealthy {
		log.Info().Str("dependency", name).Msg("Dependency is healthy again")
		status.IsHealthy = true
	}
}

func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.healthStatus[name]
	status.LastCheck = time.Now()
	status.LastFailure = status.LastCheck
	status.FailureCount++
	status.LastError = err.Error()

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		log.Warn().Err(err).Str("dependency", name).Int("failures", status.FailureCount).Msg("Dependency is unhealthy")
		status.IsHealthy = false
	}
}

// GetAllStatus returns a copy of every dependency's status.
func (c *Checker) GetAllStatus() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	statusMap := make(map[string]Status, len(c.healthStatus))
	for name, status := range c.healthStatus {
		statusMap[name] = *status
	}

	return statusMap
}

func (c *Checker) OverallHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overall := Healthy
	for _, p := range c.probes {
		if c.healthStatus[p.Name].IsHealthy {
			continue
		}
		if p.Critical {
			return Unhealthy
		}
		overall = Degraded
	}
	return overall
}
