package telemetry

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
)

// TestEmitter is an Emitter whose spans are kept in memory.
type TestEmitter struct {
	*Emitter

	Recorder *tracetest.SpanRecorder
	Exporter *tracetest.InMemoryExporter
}

// NewTestEmitter creates an emitter with in-memory recording and export.
// Recorder sees spans synchronously on End; Exporter only after a flush.
func NewTestEmitter(logger *logging.Logger) *TestEmitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	recorder := tracetest.NewSpanRecorder()
	exporter := tracetest.NewInMemoryExporter()

	e, err := New(context.Background(), NewDefaultConfig(), logger,
		WithExporter(exporter),
		WithSpanProcessor(recorder),
	)
	if err != nil {
		panic("telemetry: default config rejected: " + err.Error())
	}
	return &TestEmitter{
		Emitter:  e,
		Recorder: recorder,
		Exporter: exporter,
	}
}

// Spans returns all ended spans in end order.
func (t *TestEmitter) Spans() []sdktrace.ReadOnlySpan {
	return t.Recorder.Ended()
}

// Roots returns ended spans without a parent.
func (t *TestEmitter) Roots() []sdktrace.ReadOnlySpan {
	var roots []sdktrace.ReadOnlySpan
	for _, s := range t.Spans() {
		if !s.Parent().IsValid() {
			roots = append(roots, s)
		}
	}
	return roots
}

// ChildrenOf returns ended spans whose parent is parent.
func (t *TestEmitter) ChildrenOf(parent sdktrace.ReadOnlySpan) []sdktrace.ReadOnlySpan {
	var children []sdktrace.ReadOnlySpan
	for _, s := range t.Spans() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() && s.Parent().IsValid() {
			children = append(children, s)
		}
	}
	return children
}

// SpanByName finds the first ended span by name, or nil if not found.
func (t *TestEmitter) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, s := range t.Spans() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}
