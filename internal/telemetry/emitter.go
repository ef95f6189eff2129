package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

const instrumentationName = "github.com/heatmap-panel/trace-test-app"

// Emitter creates spans for one service identity and exports them in the
// background. Export failures are logged, never returned to span callers.
type Emitter struct {
	config   *Config
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *logging.Logger
	closers  []func() error
}

// Option configures Emitter creation.
type Option func(*options)

type options struct {
	exporter   sdktrace.SpanExporter
	observer   ExportObserver
	processors []sdktrace.SpanProcessor
}

// WithExporter overrides the OTLP exporter.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.exporter = exp
	}
}

// WithExportObserver reports every export attempt to obs.
func WithExportObserver(obs ExportObserver) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithSpanProcessor registers an extra processor next to the batcher.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.processors = append(o.processors, p)
	}
}

// New validates cfg and builds the tracer provider. Only configuration
// problems fail here; the collector is not contacted until the first export.
func New(ctx context.Context, cfg *Config, logger *logging.Logger, opts ...Option) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Emitter{config: cfg, logger: logger}

	exp := o.exporter
	if exp == nil {
		var closer func() error
		var err error
		exp, closer, err = newExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, closer)
	}
	reporting := &reportingExporter{
		SpanExporter: exp,
		logger:       logger,
		endpoint:     cfg.Endpoint,
		observer:     o.observer,
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(reporting,
			sdktrace.WithMaxQueueSize(cfg.Batch.MaxQueueSize),
			sdktrace.WithMaxExportBatchSize(cfg.exportBatchSize()),
			sdktrace.WithBatchTimeout(cfg.Batch.Timeout),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		),
		sdktrace.WithResource(newResource(cfg)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	e.provider = sdktrace.NewTracerProvider(tpOpts...)
	e.tracer = e.provider.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	return e, nil
}

// newResource describes the service. A standalone resource avoids schema
// URL conflicts with resource.Default().
func newResource(cfg *Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		semconv.K8SNodeName(cfg.NodeName),
	)
}

// StartRoot begins a new trace. The returned context carries the span.
func (e *Emitter) StartRoot(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span, error) {
	if name == "" {
		return ctx, nil, ErrEmptyName
	}
	ctx, s := e.tracer.Start(ctx, name,
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
	return ctx, &Span{span: s, name: name}, nil
}

// StartChild begins a span under parent, which must still be open.
func (e *Emitter) StartChild(ctx context.Context, parent *Span, name string, attrs ...attribute.KeyValue) (context.Context, *Span, error) {
	if name == "" {
		return ctx, nil, ErrEmptyName
	}
	if parent == nil {
		return ctx, nil, ErrNoParent
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()
	if parent.ended {
		return ctx, nil, fmt.Errorf("start %q: %w", name, ErrParentEnded)
	}

	ctx, s := e.tracer.Start(trace.ContextWithSpan(ctx, parent.span), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	parent.children++
	return ctx, &Span{span: s, name: name, parent: parent}, nil
}

// ForceFlush exports everything queued so far.
func (e *Emitter) ForceFlush(ctx context.Context) error {
	return e.provider.ForceFlush(ctx)
}

// Shutdown flushes the queue and stops the export worker. Without a
// deadline on ctx the configured shutdown timeout applies.
func (e *Emitter) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := e.provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
	}
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("closing exporter connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Endpoint returns the collector URL spans are sent to.
func (e *Emitter) Endpoint() string {
	return e.config.Endpoint
}
