// Package workload drives the synthetic units of work that produce
// traces and correlated log records.
package workload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/heatmap-panel/trace-test-app/internal/logging"
	"github.com/heatmap-panel/trace-test-app/internal/telemetry"
)

const (
	component     = "trace_worker"
	rootOperation = "main_operation"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("workload: driver already started")

// State is the driver lifecycle: NotStarted → Running → Completed.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Recorder receives per-iteration measurements. *metrics.Metrics
// implements it.
type Recorder interface {
	OperationStarted()
	OperationFinished(elapsed time.Duration, errorType string)
}

type nopRecorder struct{}

func (nopRecorder) OperationStarted()                       {}
func (nopRecorder) OperationFinished(time.Duration, string) {}

// Summary counts what a run produced.
type Summary struct {
	Iterations int
	RootSpans  int
	ChildSpans int
	Failures   int
}

// Driver runs a fixed number of iterations strictly sequentially.
type Driver struct {
	cfg      *Config
	emitter  *telemetry.Emitter
	logger   *logging.Logger
	recorder Recorder
	rnd      Rand
	sleep    func(ctx context.Context, d time.Duration)
	state    atomic.Int32
}

// Option configures a Driver.
type Option func(*Driver)

// WithRand replaces the random source.
func WithRand(rnd Rand) Option {
	return func(d *Driver) {
		d.rnd = rnd
	}
}

// WithSleep replaces the simulated-work delay.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(d *Driver) {
		d.sleep = fn
	}
}

// WithRecorder reports iteration outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// NewDriver validates cfg and binds the driver to its emitter and logger.
func NewDriver(cfg *Config, emitter *telemetry.Emitter, logger *logging.Logger, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload config: %w", err)
	}
	if emitter == nil || logger == nil {
		return nil, fmt.Errorf("workload: emitter and logger are required")
	}
	d := &Driver{
		cfg:      cfg,
		emitter:  emitter,
		logger:   logger,
		recorder: nopRecorder{},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rnd == nil {
		d.rnd = NewRand(cfg.Seed)
	}
	return d, nil
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Run performs every configured iteration. Failures inside an iteration
// are logged and counted; only cancellation of ctx ends the run early.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if !d.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return Summary{}, ErrAlreadyStarted
	}
	defer d.state.Store(int32(StateCompleted))

	d.logger.Info(ctx, "Starting trace worker",
		zap.String("component", component),
		zap.String("otlp_endpoint", d.emitter.Endpoint()),
		zap.Int("iterations", d.cfg.Iterations),
		zap.Strings("sub_operations", d.cfg.SubOperations),
	)

	limit := rate.Inf
	if d.cfg.Interval > 0 {
		limit = rate.Every(d.cfg.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	var sum Summary
	for i := 1; i <= d.cfg.Iterations; i++ {
		if err := limiter.Wait(ctx); err != nil {
			d.logger.Warning(ctx, "Trace worker interrupted",
				zap.String("component", component),
				zap.Int("iteration", i),
				zap.Int("completed", sum.Iterations),
			)
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			return sum, err
		}

		res := d.runIteration(ctx, i)
		sum.Iterations++
		sum.RootSpans += res.rootSpans
		sum.ChildSpans += res.childSpans
		if res.errorType != "" {
			sum.Failures++
		}
		if res.err != nil {
			d.logger.Error(ctx, "iteration failed",
				zap.String("component", component),
				zap.Int("iteration", i),
				zap.String("error_type", "iteration_error"),
				zap.Error(res.err),
			)
		}
	}

	d.logger.Info(ctx, "Trace worker finished",
		zap.String("component", component),
		zap.Int("iterations", sum.Iterations),
		zap.Int("root_spans", sum.RootSpans),
		zap.Int("child_spans", sum.ChildSpans),
		zap.Int("failures", sum.Failures),
	)
	return sum, nil
}

type iterationResult struct {
	rootSpans  int
	childSpans int
	errorType  string
	err        error
}

func (d *Driver) runIteration(ctx context.Context, iteration int) (res iterationResult) {
	start := time.Now()
	d.recorder.OperationStarted()
	defer func() {
		d.recorder.OperationFinished(time.Since(start), res.errorType)
	}()

	user := userID(d.rnd)
	rootCtx, root, err := d.emitter.StartRoot(ctx, rootOperation,
		attribute.Int("iteration", iteration),
		attribute.String("environment", d.cfg.Environment),
		attribute.String("user.id", user),
		attribute.String("host.region", pickWeighted(d.rnd, regions)),
	)
	if err != nil {
		res.err = err
		return res
	}
	res.rootSpans = 1

	d.logger.Info(rootCtx, "starting operation",
		zap.String("component", component),
		zap.String("operation", rootOperation),
		zap.Int("iteration", iteration),
		zap.String("user_id", user),
		zap.String("environment", d.cfg.Environment),
	)

	failAt := -1
	if d.rnd.Float64() < d.cfg.FailureRate {
		failAt = d.rnd.IntN(len(d.cfg.SubOperations))
	}

	for j, op := range d.cfg.SubOperations {
		errorType, started, err := d.runSubOperation(rootCtx, root, iteration, op, j == failAt)
		if started {
			res.childSpans++
		}
		if errorType != "" {
			res.errorType = errorType
		}
		if err != nil {
			res.err = err
			break
		}
	}

	status, processing := telemetry.StatusOK, "completed"
	if res.errorType != "" {
		status, processing = telemetry.StatusError, "error"
	}
	res.err = errors.Join(res.err,
		root.SetAttribute("processing.status", processing),
		root.End(status, res.errorType),
	)

	if res.errorType != "" {
		d.logger.Error(rootCtx, "operation failed",
			zap.String("component", component),
			zap.String("operation", rootOperation),
			zap.Int("iteration", iteration),
			zap.String("error_type", res.errorType),
			zap.String("processing_status", processing),
		)
		return res
	}
	d.logger.Info(rootCtx, "operation completed",
		zap.String("component", component),
		zap.String("operation", rootOperation),
		zap.Int("iteration", iteration),
		zap.String("processing_status", processing),
		zap.Float64("duration_seconds", time.Since(start).Seconds()),
	)
	return res
}

// runSubOperation wraps one simulated step in a child span. The child is
// always ended before returning so the root can close.
func (d *Driver) runSubOperation(ctx context.Context, root *telemetry.Span, iteration int, op string, fail bool) (string, bool, error) {
	ctx, child, err := d.emitter.StartChild(ctx, root, op, attribute.Int("item.id", iteration))
	if err != nil {
		return "", false, err
	}
	start := time.Now()

	d.logger.Info(ctx, "sub-operation started",
		zap.String("component", component),
		zap.String("operation", op),
		zap.Int("item_id", iteration),
	)

	d.sleep(ctx, gaussianDuration(d.rnd, d.cfg.MinWork, d.cfg.MaxWork))

	var errs []error
	fields := []zap.Field{
		zap.String("component", component),
		zap.String("operation", op),
		zap.Int("item_id", iteration),
	}
	for _, a := range d.outcome(op, fail) {
		errs = append(errs, child.SetAttribute(a.key, a.value))
		fields = append(fields, zap.Any(strings.ReplaceAll(a.key, ".", "_"), a.value))
	}

	errorType := ""
	status := telemetry.StatusOK
	if fail {
		errorType = errorTypeFor(op)
		status = telemetry.StatusError
		errs = append(errs,
			child.SetAttribute("error.type", errorType),
			child.RecordError(fmt.Errorf("simulated %s in %s", errorType, op)),
		)
	}
	errs = append(errs, child.End(status, errorType))
	fields = append(fields, zap.Float64("duration_seconds", time.Since(start).Seconds()))

	if fail {
		d.logger.Error(ctx, "sub-operation failed", append(fields, zap.String("error_type", errorType))...)
	} else {
		d.logger.Info(ctx, "sub-operation completed", fields...)
	}
	return errorType, true, errors.Join(errs...)
}

type outcomeAttr struct {
	key   string
	value any
}

// outcome returns the attributes describing how op went.
func (d *Driver) outcome(op string, failed bool) []outcomeAttr {
	result := "success"
	if failed {
		result = "failure"
	}
	switch op {
	case "validate_data":
		return []outcomeAttr{
			{"validation.result", result},
			{"validation.rules_checked", 3 + d.rnd.IntN(5)},
		}
	case "store_data":
		attrs := []outcomeAttr{{"storage.type", pickWeighted(d.rnd, storageTypes)}}
		if !failed {
			attrs = append(attrs, outcomeAttr{"storage.bytes_written", int64(512 + d.rnd.IntN(4096))})
		}
		return attrs
	default:
		return []outcomeAttr{{"operation.result", result}}
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
