package workload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero interval", mutate: func(c *Config) { c.Interval = 0 }},
		{name: "zero iterations", mutate: func(c *Config) { c.Iterations = 0 }, wantErr: "iterations"},
		{name: "no sub-operations", mutate: func(c *Config) { c.SubOperations = nil }, wantErr: "sub-operation"},
		{name: "empty sub-operation", mutate: func(c *Config) { c.SubOperations = []string{"a", ""} }, wantErr: "sub_operations[1]"},
		{name: "failure rate above one", mutate: func(c *Config) { c.FailureRate = 1.5 }, wantErr: "failure_rate"},
		{name: "negative failure rate", mutate: func(c *Config) { c.FailureRate = -0.1 }, wantErr: "failure_rate"},
		{name: "negative interval", mutate: func(c *Config) { c.Interval = -time.Second }, wantErr: "interval"},
		{name: "inverted work bounds", mutate: func(c *Config) { c.MaxWork = c.MinWork - 1 }, wantErr: "work bounds"},
		{name: "no environment", mutate: func(c *Config) { c.Environment = "" }, wantErr: "environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
