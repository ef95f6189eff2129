// Package logging writes structured JSON records to standard output.
//
// Every record is one line carrying "timestamp", "level" and "message";
// caller fields are merged as top-level keys. Levels are DEBUG, INFO,
// WARNING, ERROR and CRITICAL. When the context carries an OpenTelemetry
// span, "trace_id" and "span_id" are added so a log shipper can join the
// line to the trace.
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	logger.Info(ctx, "starting operation",
//	    zap.String("component", "trace_worker"),
//	    zap.Int("iteration", 1),
//	)
//
// Writes go through zapcore.Lock, so concurrent callers never interleave
// partial lines. There is no sampling: each call emits exactly one record.
package logging
