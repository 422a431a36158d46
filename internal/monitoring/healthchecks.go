package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// Pinger is implemented by backing services that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependency struct {
	Name   string
	Pinger Pinger
}

// Monitor tracks whether every registered dependency answered its last ping.
type Monitor struct {
	deps     []Dependency
	interval time.Duration
	healthy  atomic.Bool
}

func NewMonitor(interval time.Duration, deps ...Dependency) *Monitor {
	if interval <= 0 {
		interval = time.Second * HEALTHCHECK_TIMER
	}
	m := &Monitor{deps: deps, interval: interval}
	m.healthy.Store(true)
	return m
}

func (m *Monitor) Healthy() bool {
	return m.healthy.Load()
}

// Check pings every dependency once and records the outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	isHealthy := true
	for _, dep := range m.deps {
		pingCtx, cancel := context.WithTimeout(ctx, m.interval)
		err := dep.Pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			isHealthy = false
			slog.Warn("[HealthCheck] Dependency is unhealthy",
				slog.String("dependency", dep.Name),
				slog.String("error", err.Error()))
		}
	}
	m.healthy.Store(isHealthy)
	return isHealthy
}

// Run checks on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
