package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyName        = errors.New("telemetry: span name must not be empty")
	ErrEmptyKey         = errors.New("telemetry: attribute key must not be empty")
	ErrNoParent         = errors.New("telemetry: child span needs a parent")
	ErrParentEnded      = errors.New("telemetry: parent span already ended")
	ErrSpanEnded        = errors.New("telemetry: span already ended")
	ErrOpenChildren     = errors.New("telemetry: span has open children")
	ErrUnsupportedValue = errors.New("telemetry: attribute value must be a string, number or boolean")
)

// Status is the outcome recorded when a span ends.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "ok"
}

// Span is a handle on one open operation. It enforces that attributes are
// only added while open, that End is called once, and that a span ends
// only after all of its children.
type Span struct {
	mu       sync.Mutex
	span     trace.Span
	parent   *Span
	name     string
	children int
	ended    bool
}

// Name returns the operation label.
func (s *Span) Name() string {
	return s.name
}

// TraceID returns the hex trace identifier.
func (s *Span) TraceID() string {
	return s.span.SpanContext().TraceID().String()
}

// SpanID returns the hex span identifier.
func (s *Span) SpanID() string {
	return s.span.SpanContext().SpanID().String()
}

// SpanContext returns the OpenTelemetry span context.
func (s *Span) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

// Ended reports whether End has been called successfully.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// SetAttribute attaches a scalar value. Integers are widened to int64 and
// float32 to float64; unsigned values beyond int64 are stored as strings.
func (s *Span) SetAttribute(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	kv, err := scalarAttribute(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("set %q on %q: %w", key, s.name, ErrSpanEnded)
	}
	s.span.SetAttributes(kv)
	return nil
}

// RecordError adds an exception event to the open span.
func (s *Span) RecordError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("record error on %q: %w", s.name, ErrSpanEnded)
	}
	s.span.RecordError(err)
	return nil
}

// End finalizes the span with status and hands it to the exporter.
func (s *Span) End(status Status, description string) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return fmt.Errorf("end %q: %w", s.name, ErrSpanEnded)
	}
	if s.children > 0 {
		n := s.children
		s.mu.Unlock()
		return fmt.Errorf("end %q with %d open: %w", s.name, n, ErrOpenChildren)
	}
	if status == StatusError {
		s.span.SetStatus(codes.Error, description)
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
	s.ended = true
	s.mu.Unlock()

	if s.parent != nil {
		s.parent.mu.Lock()
		s.parent.children--
		s.parent.mu.Unlock()
	}
	return nil
}

func scalarAttribute(key string, value any) (attribute.KeyValue, error) {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v), nil
	case bool:
		return attribute.Bool(key, v), nil
	case int:
		return attribute.Int(key, v), nil
	case int8:
		return attribute.Int64(key, int64(v)), nil
	case int16:
		return attribute.Int64(key, int64(v)), nil
	case int32:
		return attribute.Int64(key, int64(v)), nil
	case int64:
		return attribute.Int64(key, v), nil
	case uint8:
		return attribute.Int64(key, int64(v)), nil
	case uint16:
		return attribute.Int64(key, int64(v)), nil
	case uint32:
		return attribute.Int64(key, int64(v)), nil
	case uint:
		return unsignedAttribute(key, uint64(v)), nil
	case uint64:
		return unsignedAttribute(key, v), nil
	case uintptr:
		return unsignedAttribute(key, uint64(v)), nil
	case float32:
		return attribute.Float64(key, float64(v)), nil
	case float64:
		return attribute.Float64(key, v), nil
	}
	return attribute.KeyValue{}, fmt.Errorf("%q (%T): %w", key, value, ErrUnsupportedValue)
}

// unsignedAttribute keeps values above MaxInt64 exact as decimal strings.
func unsignedAttribute(key string, v uint64) attribute.KeyValue {
	if v > math.MaxInt64 {
		return attribute.String(key, strconv.FormatUint(v, 10))
	}
	return attribute.Int64(key, int64(v))
}
