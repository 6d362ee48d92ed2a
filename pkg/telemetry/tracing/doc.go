// Package tracing provides OpenTelemetry tracing for retention runs.
//
// Each run is a root span with one child span per phase (sync, plan,
// apply, sweep). Spans are exported over OTLP gRPC when enabled; otherwise
// a noop tracer keeps call sites unconditional.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "retention.run",
//	    trace.WithAttributes(tracing.RunAttributes(runID, "run")...))
//	defer span.End()
//
// The trace context of a run is injected into notifier records with
// InjectToMap so downstream consumers can continue the trace.
package tracing
