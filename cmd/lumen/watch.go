package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/gpu"
	"lumen/internal/hotreload"
	"lumen/internal/program"
	"lumen/internal/source"
	"lumen/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [program...]",
	Short: "Re-check programs whenever one of their files changes",
	Long: `Watch every file the selected programs were built from and rebuild a
program as soon as one of them changes. Without --compile only includes and
uniforms are checked; with --compile programs are rebuilt by the OpenGL
driver. A failed rebuild is reported and the previous build stays active.`,
	RunE: runWatch,
}

func init() {
	addSpecFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 0, "poll interval (default from lumen.toml, else 200ms)")
	watchCmd.Flags().Bool("compile", false, "rebuild with the OpenGL driver (disables --ui)")
	watchCmd.Flags().String("ui", "auto", "status UI (auto|on|off)")
	watchCmd.Flags().Bool("dump-trace", true, "print buffered trace events after a failed reload (with --trace-mode ring|both)")
}

const defaultInterval = 200 * time.Millisecond

// watched is one program under a coordinator.
type watched struct {
	name  string
	coord *hotreload.Coordinator
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	compile, err := cmd.Flags().GetBool("compile")
	if err != nil {
		return fmt.Errorf("failed to get compile flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	dumpTrace, err := cmd.Flags().GetBool("dump-trace")
	if err != nil {
		return fmt.Errorf("failed to get dump-trace flag: %w", err)
	}
	tui, err := useTUI(uiValue, compile)
	if err != nil {
		return err
	}

	pc, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	if err = pc.requireSpecs(); err != nil {
		return err
	}
	if interval == 0 && pc.manifest != nil {
		interval = pc.manifest.Interval()
	}
	if interval <= 0 {
		interval = defaultInterval
	}

	tracer := tracerFor(cmd)
	var failureDump io.Writer
	if dumpTrace {
		failureDump = cmd.ErrOrStderr()
	}

	var backend gpu.Backend
	if compile {
		be, closeGPU, gpuErr := openHeadlessGPU()
		if gpuErr != nil {
			return gpuErr
		}
		defer closeGPU()
		backend = be
	}

	reader := source.NewReader(pc.root)
	items := make([]*watched, 0, len(pc.specs))
	for _, spec := range pc.specs {
		var prog hotreload.Reloadable
		if backend != nil {
			p, buildErr := program.Build(spec, program.Options{Root: pc.root, Backend: backend, Tracer: tracer})
			if buildErr != nil {
				diagfmt.PrettyError(cmd.ErrOrStderr(), buildErr, reader, diagfmt.PrettyOpts{Color: useColor(), Context: 1})
				return reportedError{buildErr}
			}
			defer p.Delete()
			prog = p
		} else {
			pv, inspectErr := program.NewPreview(spec, pc.root, tracer)
			if inspectErr != nil {
				diagfmt.PrettyError(cmd.ErrOrStderr(), inspectErr, reader, diagfmt.PrettyOpts{Color: useColor(), Context: 1})
				return reportedError{inspectErr}
			}
			prog = pv
		}
		coord, coordErr := hotreload.New(prog, hotreload.Options{
			Tracer:      tracer,
			FailureDump: failureDump,
		})
		if coordErr != nil {
			return coordErr
		}
		items = append(items, &watched{name: spec.Name, coord: coord})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if tui {
		return watchWithUI(ctx, items, interval)
	}
	return watchLoop(ctx, items, interval, func(w *watched, res hotreload.Result, err error) {
		reportWatch(cmd, reader, w, res, err)
	})
}

// watchLoop ticks every coordinator once per interval until ctx is done.
// report is called for every tick that found a change or an error.
func watchLoop(ctx context.Context, items []*watched, interval time.Duration, report func(*watched, hotreload.Result, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for _, w := range items {
			res, err := w.coord.Tick()
			if res.Changed || err != nil {
				report(w, res, err)
			}
		}
	}
}

func reportWatch(cmd *cobra.Command, reader *source.Reader, w *watched, res hotreload.Result, err error) {
	stamp := color.New(color.Faint).Sprint(time.Now().Format("15:04:05"))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s\n", stamp, color.New(color.FgRed, color.Bold).Sprint("reload failed:"), w.name)
		diagfmt.PrettyError(cmd.ErrOrStderr(), err, reader, diagfmt.PrettyOpts{Color: useColor(), Context: 1})
		return
	}
	reloads, _ := w.coord.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (#%d, %d carried, %d reset, %d watched)\n",
		stamp, color.New(color.FgGreen).Sprint("reloaded"), w.name, reloads,
		len(res.Outcome.Carried), len(res.Outcome.Reset), len(w.coord.Watched()))
}

func watchWithUI(ctx context.Context, items []*watched, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan ui.WatchStatus, len(items)+64)
	names := make([]string, len(items))
	for i, w := range items {
		names[i] = w.name
		updates <- statusOf(w, false, nil)
	}

	loopErr := make(chan error, 1)
	go func() {
		err := watchLoop(ctx, items, interval, func(w *watched, res hotreload.Result, err error) {
			updates <- statusOf(w, res.Changed, err)
		})
		close(updates)
		loopErr <- err
	}()

	_, uiErr := tea.NewProgram(ui.NewWatchModel("watching", names, updates), tea.WithOutput(os.Stdout)).Run()
	cancel()
	// дочитываем, чтобы цикл не застрял на полном канале
	for range updates {
	}
	if err := <-loopErr; err != nil {
		return err
	}
	return uiErr
}

func statusOf(w *watched, changed bool, err error) ui.WatchStatus {
	reloads, failed := w.coord.Stats()
	return ui.WatchStatus{
		Program: w.name,
		Files:   len(w.coord.Watched()),
		Reloads: reloads,
		Failed:  failed,
		Changed: changed,
		Err:     err,
		At:      time.Now(),
	}
}
