package metrics

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

// Rand is the random source for simulated gauges.
type Rand interface {
	Float64() float64
	Int64N(n int64) int64
}

const (
	minCPUPercent = 10.0
	maxCPUPercent = 90.0
	minMemory     = 100_000_000
	maxMemory     = 500_000_000
)

// Updater refreshes the simulated CPU and memory gauges on an interval.
type Updater struct {
	metrics  *Metrics
	logger   *logging.Logger
	rnd      Rand
	interval time.Duration
}

// NewUpdater creates an updater; rnd must not be shared with other goroutines.
func NewUpdater(m *Metrics, logger *logging.Logger, rnd Rand, interval time.Duration) *Updater {
	return &Updater{metrics: m, logger: logger, rnd: rnd, interval: interval}
}

// Update sets one fresh pair of simulated readings.
func (u *Updater) Update(ctx context.Context) {
	cpu := minCPUPercent + u.rnd.Float64()*(maxCPUPercent-minCPUPercent)
	memory := minMemory + u.rnd.Int64N(maxMemory-minMemory+1)
	u.metrics.SetSystem(cpu, memory)
	u.logger.Debug(ctx, "Updated simulated metrics",
		zap.String("component", "metrics_updater"),
		zap.Float64("cpu_percent", math.Round(cpu*100)/100),
		zap.Int64("memory_bytes", memory),
	)
}

// Run updates immediately and then every interval until ctx is done.
func (u *Updater) Run(ctx context.Context) error {
	u.logger.Info(ctx, "Starting simulated metrics updater",
		zap.String("component", "metrics_updater"),
		zap.Float64("interval_seconds", u.interval.Seconds()),
	)
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.Update(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			u.Update(ctx)
		}
	}
}
