package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/trace"
)

// activeTracer is the tracer of the running command, kept for panic dumps.
var activeTracer trace.Tracer = trace.Nop

func addTraceFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("trace", "", "write trace events to file (- for stderr)")
	cmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|info|debug)")
	cmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	cmd.PersistentFlags().String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	cmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer size for ring/both modes")
}

// setupTracing inspects trace-related flags and initializes the tracer.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	// Read trace configuration from flags
	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	// Parse level
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает info
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelInfo
	}

	// If level is off, skip tracing
	if level == trace.LevelOff {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	}

	// Parse mode
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}

	// Create tracer config
	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Color:      useColor(),
	}

	// Create tracer
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTracer = tracer

	// Attach tracer to context
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	// Return cleanup function
	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
		activeTracer = trace.Nop
	}

	return cleanup, nil
}

// tracerFor returns the tracer attached to cmd's context.
func tracerFor(cmd *cobra.Command) trace.Tracer {
	return trace.FromContext(cmd.Context())
}

// dumpTraceOnPanic writes the ring buffer to stderr before re-panicking.
// Deferred at the top of long-running commands.
func dumpTraceOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if ring, ok := trace.RingOf(activeTracer); ok {
		fmt.Fprintln(os.Stderr, "--- trace before panic ---")
		_ = ring.Dump(os.Stderr, trace.FormatText) //nolint:errcheck
	}
	panic(r)
}
