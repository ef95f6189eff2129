package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

// Server serves /metrics, /health and an index document.
type Server struct {
	cfg     *Config
	metrics *Metrics
	logger  *logging.Logger
	router  chi.Router
}

// NewServer wires the routes. m must not be nil.
func NewServer(cfg *Config, m *Metrics, logger *logging.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	promHandler := promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		s.accessed(req, "Metrics endpoint accessed")
		promHandler.ServeHTTP(w, req)
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		s.accessed(req, "Health check endpoint accessed", zap.String("status", "healthy"))
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		s.accessed(req, "Root endpoint accessed")
		writeJSON(w, http.StatusOK, map[string]string{
			"message":          "Metrics Demo App",
			"metrics_endpoint": "/metrics",
			"health_endpoint":  "/health",
		})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is done, then shuts
// the listener down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info(ctx, "Starting metrics server",
		zap.String("component", "metrics_server"),
		zap.String("address", s.cfg.Address),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) accessed(req *http.Request, msg string, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("component", "metrics_server"),
		zap.String("endpoint", req.URL.Path),
		zap.String("method", req.Method),
		zap.String("remote_addr", req.RemoteAddr),
	}, extra...)
	s.logger.Info(req.Context(), msg, fields...)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		endpoint := chi.RouteContext(req.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(req.Method, endpoint, status)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
