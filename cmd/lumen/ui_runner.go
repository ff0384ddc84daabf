package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"lumen/internal/pipeline"
	"lumen/internal/ui"
)

type checkOutcome struct {
	summary *pipeline.Summary
	err     error
}

// runCheckWithUI runs the inspection half of the pipeline under a progress
// view. GPU compilation is not done here: it has to happen on the goroutine
// that owns the GL context, after the view has exited.
func runCheckWithUI(ctx context.Context, title string, names []string, opts pipeline.Options) (*pipeline.Summary, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := opts
		reqCopy.Backend = nil
		reqCopy.Sink = pipeline.ChannelSink{Ch: events}
		sum, err := pipeline.Check(ctx, reqCopy)
		outcomeCh <- checkOutcome{summary: sum, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, false, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}

// useTUI resolves the --ui flag. GL calls pin the calling goroutine, so a run
// with --compile always gets plain output.
func useTUI(value string, compile bool) (bool, error) {
	var want bool
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		want = isTerminal(os.Stdout)
	case "on":
		want = true
	case "off":
	default:
		return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return want && !compile, nil
}
