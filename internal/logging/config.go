package logging

import (
	"fmt"
	"os"
)

// Config holds logging configuration.
type Config struct {
	Level  string            `koanf:"level"`
	Fields map[string]string `koanf:"fields"`
}

// NewDefaultConfig returns the defaults used when nothing overrides them.
func NewDefaultConfig() *Config {
	node := os.Getenv("K8S_NODE_NAME")
	if node == "" {
		node = "unknown"
	}
	return &Config{
		Level: "info",
		Fields: map[string]string{
			"service":       "trace-test-app",
			"k8s_node_name": node,
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if isReservedKey(k) {
			return fmt.Errorf("field %q collides with a mandatory log key", k)
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}
