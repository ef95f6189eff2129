package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/heatmap-panel/trace-test-app/internal/config"
	"github.com/heatmap-panel/trace-test-app/internal/logging"
	"github.com/heatmap-panel/trace-test-app/internal/metrics"
	"github.com/heatmap-panel/trace-test-app/internal/telemetry"
	"github.com/heatmap-panel/trace-test-app/internal/workload"
)

const component = "main"

// run wires the collaborators, drives every iteration and flushes pending
// spans. Only configuration failures are returned; export failures and
// interruption end in a normal exit.
func run(ctx context.Context, path string, stdout io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&cfg.Log, zapcore.AddSync(stdout))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "Starting application",
		zap.String("component", component),
		zap.String("service_version", cfg.Service.Version),
		zap.String("environment", cfg.Service.Environment),
		zap.String("otlp_endpoint", cfg.Telemetry.Endpoint),
		zap.String("otlp_protocol", cfg.Telemetry.Protocol),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)
	if err := logger.OutputErr(); err != nil {
		return fmt.Errorf("log output is not writable: %w", err)
	}
	telemetry.InstallErrorHandler(logger)

	// Exporter setup and the final flush outlive an interrupt.
	m := metrics.New()
	emitter, err := telemetry.New(context.WithoutCancel(ctx), &cfg.Telemetry, logger, telemetry.WithExportObserver(m))
	if err != nil {
		return fmt.Errorf("failed to create trace emitter: %w", err)
	}

	driver, err := workload.NewDriver(&cfg.Driver, emitter, logger, workload.WithRecorder(m))
	if err != nil {
		_ = emitter.Shutdown(context.WithoutCancel(ctx))
		return fmt.Errorf("failed to create driver: %w", err)
	}

	auxCtx, stopAux := context.WithCancel(ctx)
	defer stopAux()
	g, gctx := errgroup.WithContext(auxCtx)
	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(&cfg.Metrics, m, logger)
		updater := metrics.NewUpdater(m, logger, workload.NewRand(0), cfg.Metrics.UpdateInterval)
		g.Go(func() error {
			if err := srv.Run(gctx); err != nil {
				logger.Error(gctx, "Metrics server failed",
					zap.String("component", component),
					zap.String("error_type", "metrics_server_error"),
					zap.Error(err),
				)
			}
			return nil
		})
		g.Go(func() error {
			return updater.Run(gctx)
		})
	}

	sum, runErr := driver.Run(ctx)
	stopAux()
	_ = g.Wait()

	logger.Info(ctx, "Waiting for traces to be exported",
		zap.String("component", component),
		zap.Float64("timeout_seconds", cfg.Telemetry.ShutdownTimeout.Seconds()),
	)
	if err := emitter.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "Trace export did not complete",
			zap.String("component", component),
			zap.String("error_type", "export_failure"),
			zap.Error(err),
		)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	logger.Info(ctx, "Application finished",
		zap.String("component", component),
		zap.Int("iterations", sum.Iterations),
		zap.Int("root_spans", sum.RootSpans),
		zap.Int("child_spans", sum.ChildSpans),
		zap.Int("failures", sum.Failures),
		zap.Bool("interrupted", runErr != nil),
	)
	return nil
}
