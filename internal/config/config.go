// Package config assembles the per-package configurations into the one
// document read at startup.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
	"github.com/heatmap-panel/trace-test-app/internal/metrics"
	"github.com/heatmap-panel/trace-test-app/internal/telemetry"
	"github.com/heatmap-panel/trace-test-app/internal/workload"
)

// Config holds the complete trace-test-app configuration.
type Config struct {
	Service   ServiceConfig    `koanf:"service"`
	Log       logging.Config   `koanf:"log"`
	Telemetry telemetry.Config `koanf:"telemetry"`
	Driver    workload.Config  `koanf:"driver"`
	Metrics   metrics.Config   `koanf:"metrics"`
}

// ServiceConfig is the identity stamped on every span and log line.
// It overrides the matching fields of the other sections.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	NodeName    string `koanf:"node_name"`
}

// Default returns the source-level configuration.
func Default() *Config {
	node := os.Getenv("K8S_NODE_NAME")
	if node == "" {
		node = "unknown"
	}
	cfg := &Config{
		Service: ServiceConfig{
			Name:        "trace-test-app",
			Version:     "1.0.0",
			Environment: "development",
			NodeName:    node,
		},
		Log:       *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
		Driver:    *workload.NewDefaultConfig(),
		Metrics:   *metrics.NewDefaultConfig(),
	}
	cfg.applyService()
	return cfg
}

// applyService copies the service identity into the sections that carry it.
func (c *Config) applyService() {
	c.Telemetry.ServiceName = c.Service.Name
	c.Telemetry.ServiceVersion = c.Service.Version
	c.Telemetry.Environment = c.Service.Environment
	c.Telemetry.NodeName = c.Service.NodeName
	c.Driver.Environment = c.Service.Environment

	if c.Log.Fields == nil {
		c.Log.Fields = map[string]string{}
	}
	c.Log.Fields["service"] = c.Service.Name
	c.Log.Fields["k8s_node_name"] = c.Service.NodeName
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Service.Name == "" {
		errs = append(errs, errors.New("service: name is required"))
	}
	if c.Service.NodeName == "" {
		errs = append(errs, errors.New("service: node_name is required"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	if err := c.Driver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("driver: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}
