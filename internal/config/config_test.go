package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatmap-panel/trace-test-app/internal/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("K8S_NODE_NAME", "node-a")
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:4318/v1/traces", cfg.Telemetry.Endpoint)
	assert.Equal(t, telemetry.ProtocolHTTP, cfg.Telemetry.Protocol)
	assert.Equal(t, 5, cfg.Driver.Iterations)
	assert.Equal(t, "node-a", cfg.Telemetry.NodeName)
	assert.Equal(t, "node-a", cfg.Log.Fields["k8s_node_name"])
	assert.Equal(t, "trace-test-app", cfg.Log.Fields["service"])
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Telemetry.Endpoint, cfg.Telemetry.Endpoint)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  name: checkout
  environment: staging
log:
  level: debug
telemetry:
  endpoint: http://collector:4318/v1/traces
  export_timeout: 3s
  batch:
    max_queue_size: 64
driver:
  iterations: 12
  sub_operations: [validate_data, enrich_data, store_data]
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "checkout", cfg.Telemetry.ServiceName)
	assert.Equal(t, "checkout", cfg.Log.Fields["service"])
	assert.Equal(t, "staging", cfg.Driver.Environment)
	assert.Equal(t, "http://collector:4318/v1/traces", cfg.Telemetry.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Telemetry.ExportTimeout)
	assert.Equal(t, 64, cfg.Telemetry.Batch.MaxQueueSize)
	assert.Equal(t, 512, cfg.Telemetry.Batch.MaxExportBatchSize, "unset keys keep defaults")
	assert.Equal(t, 12, cfg.Driver.Iterations)
	assert.Equal(t, []string{"validate_data", "enrich_data", "store_data"}, cfg.Driver.SubOperations)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ListReplacesDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, "driver:\n  sub_operations: [store_data]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"store_data"}, cfg.Driver.SubOperations)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "driver:\n  iterations: 12\n")
	t.Setenv("TRACE_APP_DRIVER_ITERATIONS", "3")
	t.Setenv("TRACE_APP_TELEMETRY_ENDPOINT", "http://other:4318/v1/traces")
	t.Setenv("TRACE_APP_TELEMETRY_BATCH_TIMEOUT", "500ms")
	t.Setenv("TRACE_APP_SERVICE_NODE_NAME", "node-b")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Driver.Iterations)
	assert.Equal(t, "http://other:4318/v1/traces", cfg.Telemetry.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Telemetry.Batch.Timeout)
	assert.Equal(t, "node-b", cfg.Log.Fields["k8s_node_name"])
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("TRACE_APP_DRIVER_SUB_OPERATIONS", "validate_data, enrich_data store_data")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"validate_data", "enrich_data", "store_data"}, cfg.Driver.SubOperations)
}

func TestLoad_GRPCDefaultEndpoint(t *testing.T) {
	t.Setenv("TRACE_APP_TELEMETRY_PROTOCOL", "grpc")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, telemetry.DefaultGRPCEndpoint, cfg.Telemetry.Endpoint)

	t.Setenv("TRACE_APP_TELEMETRY_ENDPOINT", "http://collector:4317")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://collector:4317", cfg.Telemetry.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to open config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "driver: [unterminated"))
		assert.ErrorContains(t, err, "failed to load config file")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "not a regular file")
	})

	t.Run("malformed endpoint", func(t *testing.T) {
		_, err := Load(writeConfig(t, "telemetry:\n  endpoint: \"http://[::1\"\n"))
		assert.ErrorContains(t, err, "telemetry")
	})

	t.Run("invalid driver", func(t *testing.T) {
		t.Setenv("TRACE_APP_DRIVER_FAILURE_RATE", "2")
		_, err := Load("")
		assert.ErrorContains(t, err, "failure_rate")
	})
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"TRACE_APP_LOG_LEVEL":                "log.level",
		"TRACE_APP_DRIVER_FAILURE_RATE":      "driver.failure_rate",
		"TRACE_APP_TELEMETRY_EXPORT_TIMEOUT": "telemetry.export_timeout",
		"TRACE_APP_TELEMETRY_RETRY_ENABLED":  "telemetry.retry.enabled",
		"TRACE_APP_TELEMETRY_BATCH_TIMEOUT":  "telemetry.batch.timeout",
		"TRACE_APP_METRICS_UPDATE_INTERVAL":  "metrics.update_interval",
		"TRACE_APP_STANDALONE":               "standalone",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
