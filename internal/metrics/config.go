package metrics

import (
	"fmt"
	"net"
	"time"
)

// Config controls the Prometheus endpoint and the simulated system gauges.
type Config struct {
	Enabled         bool          `koanf:"enabled"`
	Address         string        `koanf:"address"`
	UpdateInterval  time.Duration `koanf:"update_interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// NewDefaultConfig returns the defaults used when nothing overrides them.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Address:         "0.0.0.0:8000",
		UpdateInterval:  5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("address %q: %w", c.Address, err)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}
