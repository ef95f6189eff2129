package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

// InstallErrorHandler routes errors the SDK reports globally to logger at
// DEBUG. Failed exports already produce an ERROR record from the emitter.
func InstallErrorHandler(logger *logging.Logger) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Debug(context.Background(), "otel sdk error",
			zap.String("component", "otel_sdk"),
			zap.Error(err),
		)
	}))
}
