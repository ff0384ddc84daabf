package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/diag"
	"lumen/internal/diagfmt"
	"lumen/internal/preprocess"
	"lumen/internal/source"
	"lumen/internal/trace"
)

var mapCmd = &cobra.Command{
	Use:   "map [flags] <entry>",
	Short: "Map a compiler log back onto the original files",
	Long: `Preprocess <entry>, then read a compiler log whose line numbers refer to
the merged unit (from --log, or stdin when --log is "-" or omitted) and print
the diagnostics grouped by the file each line came from.`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().String("log", "-", "compiler log file (- for stdin)")
	mapCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	mapCmd.Flags().Int("context", 1, "source lines shown around each diagnostic (-1 hides source)")
	mapCmd.Flags().String("path-mode", "relative", "how to print paths (relative|absolute|basename)")
}

func runMap(cmd *cobra.Command, args []string) error {
	logPath, err := cmd.Flags().GetString("log")
	if err != nil {
		return fmt.Errorf("failed to get log flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	contextLines, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode %q (expected relative|absolute|basename)", pathModeStr)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	raw, err := readLog(cmd, logPath)
	if err != nil {
		return err
	}

	pc, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}
	reader := source.NewReader(pc.root)
	sp := trace.Begin(tracerFor(cmd), "Mapping "+args[0])
	unit, err := preprocess.New(reader, sp).Process(args[0])
	if err != nil {
		sp.End(trace.Outcome(err))
		diagfmt.PrettyError(cmd.ErrOrStderr(), err, reader, diagfmt.PrettyOpts{Color: useColor()})
		return reportedError{err}
	}
	files := diag.Map(raw, unit)
	sp.WithExtra("groups", fmt.Sprint(len(files))).End(trace.Outcome(nil))

	out := cmd.OutOrStdout()
	if format == "json" {
		return diagfmt.JSON(out, diagfmt.BuildDiagnosticsOutput(files, reader, diagfmt.JSONOpts{
			PathMode:      pathMode,
			Max:           maxDiagnostics,
			IncludeMerged: true,
		}))
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "no diagnostics found in log")
		return nil
	}
	diagfmt.Pretty(out, files, reader, diagfmt.PrettyOpts{
		Color:    useColor(),
		Context:  contextLines,
		PathMode: pathMode,
		Max:      maxDiagnostics,
	})
	return nil
}

func readLog(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read log from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read log: %w", err)
	}
	return string(data), nil
}
