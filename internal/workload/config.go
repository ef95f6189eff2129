package workload

import (
	"fmt"
	"time"
)

// Config describes the synthetic workload.
type Config struct {
	Iterations    int           `koanf:"iterations"`
	SubOperations []string      `koanf:"sub_operations"`
	FailureRate   float64       `koanf:"failure_rate"`
	Interval      time.Duration `koanf:"interval"`
	MinWork       time.Duration `koanf:"min_work"`
	MaxWork       time.Duration `koanf:"max_work"`
	Environment   string        `koanf:"environment"`
	Seed          uint64        `koanf:"seed"`
}

// NewDefaultConfig returns the defaults used when nothing overrides them.
func NewDefaultConfig() *Config {
	return &Config{
		Iterations:    5,
		SubOperations: []string{"validate_data", "store_data"},
		FailureRate:   0.05,
		Interval:      time.Second,
		MinWork:       50 * time.Millisecond,
		MaxWork:       150 * time.Millisecond,
		Environment:   "development",
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if len(c.SubOperations) == 0 {
		return fmt.Errorf("at least one sub-operation is required")
	}
	for i, op := range c.SubOperations {
		if op == "" {
			return fmt.Errorf("sub_operations[%d] is empty", i)
		}
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure_rate must be between 0 and 1, got %f", c.FailureRate)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}
	if c.MinWork < 0 || c.MaxWork < c.MinWork {
		return fmt.Errorf("work bounds must satisfy 0 <= min_work <= max_work")
	}
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	return nil
}
