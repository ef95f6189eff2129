package telemetry

import (
	"fmt"
	"net/url"
	"time"
)

// Export protocols.
const (
	ProtocolHTTP = "http/protobuf"
	ProtocolGRPC = "grpc"
)

// Default collector endpoints per protocol.
const (
	DefaultHTTPEndpoint = "http://127.0.0.1:4318/v1/traces"
	DefaultGRPCEndpoint = "http://127.0.0.1:4317"
)

// Config holds trace export configuration.
type Config struct {
	Endpoint        string        `koanf:"endpoint"`
	Protocol        string        `koanf:"protocol"`
	ServiceName     string        `koanf:"service_name"`
	ServiceVersion  string        `koanf:"service_version"`
	Environment     string        `koanf:"environment"`
	NodeName        string        `koanf:"node_name"`
	Batch           BatchConfig   `koanf:"batch"`
	Retry           RetryConfig   `koanf:"retry"`
	ExportTimeout   time.Duration `koanf:"export_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BatchConfig bounds the export queue and its background worker.
type BatchConfig struct {
	MaxQueueSize       int           `koanf:"max_queue_size"`
	MaxExportBatchSize int           `koanf:"max_export_batch_size"`
	Timeout            time.Duration `koanf:"timeout"`
}

// RetryConfig is handed to the OTLP exporter.
type RetryConfig struct {
	Enabled         bool          `koanf:"enabled"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	MaxElapsedTime  time.Duration `koanf:"max_elapsed_time"`
}

// NewDefaultConfig returns defaults for a collector on the local host.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:       DefaultHTTPEndpoint,
		Protocol:       ProtocolHTTP,
		ServiceName:    "trace-test-app",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		NodeName:       "unknown",
		Batch: BatchConfig{
			MaxQueueSize:       2048,
			MaxExportBatchSize: 512,
			Timeout:            2 * time.Second,
		},
		Retry: RetryConfig{
			Enabled:         true,
			InitialInterval: time.Second,
			MaxInterval:     5 * time.Second,
			MaxElapsedTime:  15 * time.Second,
		},
		ExportTimeout:   10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	u, err := c.endpointURL()
	if err != nil {
		return err
	}
	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return fmt.Errorf("protocol must be %q or %q, got %q", ProtocolHTTP, ProtocolGRPC, c.Protocol)
	}
	if c.Protocol == ProtocolGRPC && u.Path != "" && u.Path != "/" {
		return fmt.Errorf("grpc endpoint %q must not have a path", c.Endpoint)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}
	if c.Batch.MaxQueueSize <= 0 {
		return fmt.Errorf("batch.max_queue_size must be positive")
	}
	if c.Batch.MaxExportBatchSize <= 0 {
		return fmt.Errorf("batch.max_export_batch_size must be positive, got %d", c.Batch.MaxExportBatchSize)
	}
	if c.Batch.Timeout <= 0 {
		return fmt.Errorf("batch.timeout must be positive")
	}
	if c.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if c.Retry.Enabled && (c.Retry.InitialInterval <= 0 || c.Retry.MaxInterval < c.Retry.InitialInterval || c.Retry.MaxElapsedTime <= 0) {
		return fmt.Errorf("retry intervals must be positive with max_interval >= initial_interval")
	}
	return nil
}

// exportBatchSize caps the batch at the queue size, as the batch
// processor does.
func (c *Config) exportBatchSize() int {
	return min(c.Batch.MaxExportBatchSize, c.Batch.MaxQueueSize)
}

// endpointURL parses Endpoint; only absolute http(s) URLs are accepted.
func (c *Config) endpointURL() (*url.URL, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("malformed endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must use http or https", c.Endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", c.Endpoint)
	}
	return u, nil
}
