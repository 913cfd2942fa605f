// Package trace records what clangfmt does while it formats files.
//
// Enable it from the command line:
//
//	clangfmt fmt --trace=- --trace-level=detail src/
//
// # Tracers
//
//   - Nop: disabled tracing, no overhead
//   - StreamTracer: writes each event as it happens (file or stderr)
//   - RingTracer: keeps the last N events in memory for post-mortem dumps
//   - MultiTracer: fans events out to several tracers
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: failures only
//   - LevelPhase: one span per run
//   - LevelDetail: one span per file
//   - LevelDebug: also every engine call
//
// # Scopes
//
//   - ScopeDriver: a whole fmt run
//   - ScopeFile: one file (ignore check, read, write)
//   - ScopeEngine: one foreign call
//
// A foreign call cannot be interrupted, so a heartbeat (--trace-heartbeat)
// keeps emitting while the engine is busy; a trace that shows heartbeats but
// no closing engine span points at a hung engine.
//
// Tracers travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "file", 0)
//	defer span.End("")
package trace
