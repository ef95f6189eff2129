package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

func TestServer_Health(t *testing.T) {
	logger := logging.NewTestLogger()
	m := New()
	srv := NewServer(NewDefaultConfig(), m, logger.Logger)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	logger.AssertLogged(t, logging.InfoLevel, "Health check endpoint accessed")
	logger.AssertField(t, "Health check endpoint accessed", "endpoint", "/health")
}

func TestServer_Index(t *testing.T) {
	srv := NewServer(NewDefaultConfig(), New(), logging.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Metrics Demo App", body["message"])
	assert.Equal(t, "/metrics", body["metrics_endpoint"])
}

func TestServer_Metrics(t *testing.T) {
	m := New()
	m.ObserveExport(4, nil)
	srv := NewServer(NewDefaultConfig(), m, logging.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app_spans_exported_total 4")
	assert.Contains(t, rec.Body.String(), "app_processing_duration_seconds")
}

func TestServer_NotFoundCounted(t *testing.T) {
	m := New()
	srv := NewServer(NewDefaultConfig(), m, logging.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := NewServer(cfg, New(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
