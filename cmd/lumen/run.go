package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lumen/internal/snapshot"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [program]",
	Short: "Open a window and run a program with hot reload",
	Long: `Open an OpenGL window and draw a fullscreen pass with the program (the
first one in lumen.toml by default). The files it was built from are
watched and the program is rebuilt when they change; uniform values carry
over. The uniforms time, resolution, lightPos, intensity and frame are
animated when declared with their usual types.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	addSpecFlags(runCmd)
	runCmd.Flags().Int("width", 0, "window width (default from lumen.toml)")
	runCmd.Flags().Int("height", 0, "window height (default from lumen.toml)")
	runCmd.Flags().Duration("interval", 0, "poll interval for source changes (default from lumen.toml, else 200ms)")
	runCmd.Flags().Bool("snapshot", false, "restore uniform values on start and save them on exit (default from lumen.toml)")
	runCmd.Flags().Bool("reset-snapshot", false, "discard the saved uniform values before starting")
	runCmd.Flags().Uint32("groups", 1, "work groups per axis (x and y) for compute programs")
}

// runOptions is everything the window loop needs, resolved from flags and
// the manifest.
type runOptions struct {
	pc          *projectContext
	width       int
	height      int
	title       string
	interval    time.Duration
	store       *snapshot.Store
	snapshotKey string
	groups      uint32
}

func runRun(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	height, err := cmd.Flags().GetInt("height")
	if err != nil {
		return fmt.Errorf("failed to get height flag: %w", err)
	}
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	useSnapshot, err := cmd.Flags().GetBool("snapshot")
	if err != nil {
		return fmt.Errorf("failed to get snapshot flag: %w", err)
	}
	resetSnapshot, err := cmd.Flags().GetBool("reset-snapshot")
	if err != nil {
		return fmt.Errorf("failed to get reset-snapshot flag: %w", err)
	}
	groups, err := cmd.Flags().GetUint32("groups")
	if err != nil {
		return fmt.Errorf("failed to get groups flag: %w", err)
	}

	pc, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	if err = pc.requireSpecs(); err != nil {
		return err
	}
	pc.specs = pc.specs[:1]

	opts := runOptions{pc: pc, width: 1280, height: 720, title: "lumen " + pc.specs[0].Name, groups: max(groups, 1)}
	opts.snapshotKey = pc.specs[0].Name
	if m := pc.manifest; m != nil {
		win := m.Config.Window
		opts.width, opts.height = win.Width, win.Height
		opts.title = win.Title + " - " + pc.specs[0].Name
		if interval == 0 {
			interval = m.Interval()
		}
		if !cmd.Flags().Changed("snapshot") {
			useSnapshot = m.Config.Watch.Snapshot
		}
	}
	if width > 0 {
		opts.width = width
	}
	if height > 0 {
		opts.height = height
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	opts.interval = interval

	if useSnapshot || resetSnapshot {
		opts.store, err = openSnapshotStore(pc)
		if err != nil {
			return err
		}
		if pc.manifest == nil {
			opts.snapshotKey = pc.root + "#" + opts.snapshotKey
		}
		if resetSnapshot {
			if err = opts.store.Drop(opts.snapshotKey); err != nil {
				return err
			}
		}
		if !useSnapshot {
			opts.store = nil
		}
	}

	return runWindow(cmd, opts)
}

func openSnapshotStore(pc *projectContext) (*snapshot.Store, error) {
	if pc.manifest != nil {
		return snapshot.Open(pc.manifest.SnapshotDir())
	}
	return snapshot.OpenCache("lumen")
}
