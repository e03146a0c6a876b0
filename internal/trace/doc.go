// Package trace provides a tracing subsystem for the xil toolchain.
//
// The trace package tracks pipeline phases, per-unit translation and VM
// statement dispatch to help diagnose slow or looping programs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	xil run --trace=- --trace-level=phase xil.yaml
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr) as text or NDJSON
//   - ZapTracer: forwards events to a zap.Logger as structured debug records
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per-unit events
//   - LevelDebug: Everything including single VM instructions
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "translate", parentID)
//	defer span.End("")
package trace
