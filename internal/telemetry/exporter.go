package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

// ExportObserver is told about every export attempt.
type ExportObserver interface {
	ObserveExport(spans int, err error)
}

// newExporter builds the OTLP exporter for cfg.Protocol. The returned
// closer releases resources the exporter does not own.
func newExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, func() error, error) {
	u, err := cfg.endpointURL()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Protocol {
	case ProtocolGRPC:
		conn, err := grpc.NewClient(u.Host,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gRPC connection: %w", err)
		}
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithGRPCConn(conn),
			otlptracegrpc.WithTimeout(cfg.ExportTimeout),
			otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{
				Enabled:         cfg.Retry.Enabled,
				InitialInterval: cfg.Retry.InitialInterval,
				MaxInterval:     cfg.Retry.MaxInterval,
				MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
			}),
		)
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		return exp, conn.Close, nil
	default:
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
			otlptracehttp.WithTimeout(cfg.ExportTimeout),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
				Enabled:         cfg.Retry.Enabled,
				InitialInterval: cfg.Retry.InitialInterval,
				MaxInterval:     cfg.Retry.MaxInterval,
				MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
			}),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		return exp, func() error { return nil }, nil
	}
}

// reportingExporter logs and counts export outcomes. Errors are still
// returned to the batch processor, which drops the batch.
type reportingExporter struct {
	sdktrace.SpanExporter
	logger   *logging.Logger
	endpoint string
	observer ExportObserver
}

func (e *reportingExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	err := e.SpanExporter.ExportSpans(ctx, spans)
	if e.observer != nil {
		e.observer.ObserveExport(len(spans), err)
	}
	if err != nil {
		// No span context: this record must not be correlated to the exported spans.
		e.logger.Error(context.Background(), "span export failed",
			zap.String("component", "exporter"),
			zap.String("operation", "export_spans"),
			zap.String("endpoint", e.endpoint),
			zap.Int("span_count", len(spans)),
			zap.String("error_type", "export_failure"),
			zap.Error(err),
		)
		return err
	}
	e.logger.Debug(context.Background(), "spans exported",
		zap.String("component", "exporter"),
		zap.String("operation", "export_spans"),
		zap.Int("span_count", len(spans)),
	)
	return nil
}
