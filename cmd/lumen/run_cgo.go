//go:build !tinygo && cgo

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/gpu/glbackend"
	"lumen/internal/hotreload"
	"lumen/internal/program"
	"lumen/internal/snapshot"
	"lumen/internal/source"
)

// runWindow owns the GL context for its whole lifetime: building, reloading,
// uploading and drawing all happen on this goroutine.
func runWindow(cmd *cobra.Command, opts runOptions) error {
	spec := opts.pc.specs[0]
	tracer := tracerFor(cmd)
	reader := source.NewReader(opts.pc.root)
	errOut := cmd.ErrOrStderr()
	prettyOpts := diagfmt.PrettyOpts{Color: useColor(), Context: 1}

	win, err := glbackend.Open(glbackend.WindowConfig{Width: opts.width, Height: opts.height, Title: opts.title})
	if err != nil {
		return err
	}
	defer win.Close()
	backend := glbackend.New()

	prog, err := program.Build(spec, program.Options{Root: opts.pc.root, Backend: backend, Tracer: tracer})
	if err != nil {
		diagfmt.PrettyError(errOut, err, reader, prettyOpts)
		return reportedError{err}
	}
	defer prog.Delete()

	if opts.store != nil {
		payload, ok, getErr := opts.store.Get(opts.snapshotKey)
		switch {
		case getErr != nil:
			fmt.Fprintf(errOut, "snapshot: %v\n", getErr)
		case ok:
			tr := payload.Apply(prog.Table())
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d uniforms (%d reset)\n", len(tr.Carried), len(tr.Reset))
		}
	}

	coord, err := hotreload.New(prog, hotreload.Options{
		Tracer:      tracer,
		Interval:    opts.interval,
		FailureDump: errOut,
	})
	if err != nil {
		return err
	}
	anim := newAnimator(prog)

	for !win.ShouldClose() {
		res, tickErr := coord.Tick()
		switch {
		case tickErr != nil && res.Changed:
			fmt.Fprintf(errOut, "reload of %s failed, keeping the previous build\n", spec.Name)
			diagfmt.PrettyError(errOut, tickErr, reader, prettyOpts)
		case tickErr != nil:
			diagfmt.PrettyError(errOut, tickErr, reader, prettyOpts)
		case res.Reloaded:
			fmt.Fprintf(cmd.OutOrStdout(), "reloaded %s (%d carried, %d reset)\n", spec.Name, len(res.Outcome.Carried), len(res.Outcome.Reset))
			anim.bind()
		}

		width, height := win.Size()
		if animErr := anim.step(win.Time(), width, height); animErr != nil {
			fmt.Fprintf(errOut, "uniforms: %v\n", animErr)
		}

		backend.Clear(0, 0, 0, 1)
		prog.Use()
		if spec.IsCompute() {
			backend.Dispatch(opts.groups, opts.groups, 1)
		} else {
			backend.DrawFullscreen()
		}
		prog.Unuse()
		if glErr := glbackend.Err(); glErr != nil {
			fmt.Fprintf(errOut, "%v\n", glErr)
		}
		win.Frame()
	}

	if opts.store != nil {
		if err := opts.store.Put(snapshot.Capture(opts.snapshotKey, prog.Table())); err != nil {
			return fmt.Errorf("saving uniform snapshot: %w", err)
		}
	}
	return nil
}
