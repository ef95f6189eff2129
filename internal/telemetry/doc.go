// Package telemetry emits OpenTelemetry spans for the synthetic workload.
//
// An Emitter owns a TracerProvider whose batch span processor is the
// bounded export queue: ended spans are queued (max_queue_size), a
// background worker ships them in batches of at most
// max_export_batch_size every batch.timeout, and each OTLP request is
// bounded by export_timeout. Shutdown drains the queue within
// shutdown_timeout.
//
//	e, err := telemetry.New(ctx, telemetry.NewDefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	defer e.Shutdown(context.Background())
//
//	ctx, root, _ := e.StartRoot(ctx, "main_operation")
//	_, child, _ := e.StartChild(ctx, root, "validate_data")
//	_ = child.End(telemetry.StatusOK, "")
//	_ = root.End(telemetry.StatusOK, "")
//
// Export failures are logged at ERROR with error_type=export_failure and
// never reach the code creating spans.
package telemetry
