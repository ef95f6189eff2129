package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unreachableConfig = `
log:
  level: info
telemetry:
  endpoint: http://127.0.0.1:1/v1/traces
  export_timeout: 1s
  shutdown_timeout: 3s
  retry:
    enabled: false
driver:
  iterations: 2
  interval: 0s
  min_work: 0s
  max_work: 0s
metrics:
  enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "not JSON: %s", line)
		records = append(records, rec)
	}
	return records
}

func TestRun_UnreachableCollectorExitsCleanly(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), writeConfig(t, unreachableConfig), out)
	require.NoError(t, err)

	records := decodeLines(t, out.String())
	require.NotEmpty(t, records)

	runID := records[0]["run_id"]
	require.NotEmpty(t, runID)
	messages := map[string]bool{}
	for _, rec := range records {
		assert.Equal(t, runID, rec["run_id"])
		assert.Equal(t, "trace-test-app", rec["service"])
		messages[rec["message"].(string)] = true
	}

	assert.True(t, messages["starting operation"])
	assert.True(t, messages["span export failed"])
	assert.True(t, messages["Waiting for traces to be exported"])
	assert.True(t, messages["Application finished"])
	assert.Equal(t, "Application finished", records[len(records)-1]["message"])
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	require.NoError(t, run(ctx, writeConfig(t, unreachableConfig), out))

	records := decodeLines(t, out.String())
	last := records[len(records)-1]
	assert.Equal(t, "Application finished", last["message"])
	assert.Equal(t, true, last["interrupted"])
}

func TestRun_InvalidConfig(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), writeConfig(t, "driver:\n  iterations: 0\n"), out)
	assert.ErrorContains(t, err, "iterations")
	assert.Empty(t, out.String(), "nothing is logged before configuration succeeds")
}

func TestRun_UnwritableOutput(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = run(context.Background(), writeConfig(t, unreachableConfig), f)
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.ErrorContains(t, err, "log output is not writable")
}
