// Package trace is the logging sink of the shader pipeline.
//
// Output is organised in scopes. A scope is opened with Begin (or Span.Child)
// and closed with Span.End; messages emitted through a span are indented
// under it:
//
//	→ Creating main
//	  → Reflecting uniforms
//	    • "time": float
//	  ← Reflecting uniforms
//	← Creating main (Success)
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only error messages
//   - LevelInfo: scopes, info and error messages
//   - LevelDebug: everything
//
// # Implementations
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write, text (optionally coloured) or NDJSON
//   - RingTracer: circular buffer, dumped after a failure
//   - MultiTracer: combines multiple tracers
//
// # Usage
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), "Creating main")
//	defer span.End("")
package trace
