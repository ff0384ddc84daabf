package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/pipeline"
	"lumen/internal/source"
	"lumen/internal/uniform"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [program...]",
	Short: "Preprocess and reflect programs, optionally compiling them",
	Long: `Check every program in lumen.toml (or the named ones, or an ad-hoc program
given with --vertex/--fragment/--compute). Includes are expanded and uniforms
reflected in parallel; with --compile each program is also compiled and
linked by the OpenGL driver and errors are mapped back to the original files.`,
	RunE: runCheck,
}

func init() {
	addSpecFlags(checkCmd)
	checkCmd.Flags().Bool("compile", false, "compile and link with the OpenGL driver (needs a display; disables --ui)")
	checkCmd.Flags().Int("jobs", 0, "max parallel inspections (0 = GOMAXPROCS)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Bool("uniforms", false, "list the uniform table of each program")
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	compile, err := cmd.Flags().GetBool("compile")
	if err != nil {
		return fmt.Errorf("failed to get compile flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	showUniforms, err := cmd.Flags().GetBool("uniforms")
	if err != nil {
		return fmt.Errorf("failed to get uniforms flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	tui, err := useTUI(uiValue, compile)
	if err != nil {
		return err
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	pc, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	if err = pc.requireSpecs(); err != nil {
		return err
	}

	opts := pipeline.Options{
		Root:    pc.root,
		Specs:   pc.specs,
		Jobs:    jobs,
		Tracer:  tracerFor(cmd),
		Timings: showTimings,
	}
	if compile {
		backend, closeGPU, gpuErr := openHeadlessGPU()
		if gpuErr != nil {
			return gpuErr
		}
		defer closeGPU()
		opts.Backend = backend
	}

	var sum *pipeline.Summary
	if tui && format == "pretty" && !quiet {
		sum, err = runCheckWithUI(cmd.Context(), "checking", pc.names(), opts)
	} else {
		sum, err = pipeline.Check(cmd.Context(), opts)
	}
	if err != nil {
		return err
	}

	reader := source.NewReader(pc.root)
	out := cmd.OutOrStdout()
	if format == "json" {
		payload := make([]diagfmt.DiagnosticsOutput, len(sum.Results))
		for i, r := range sum.Results {
			payload[i] = diagfmt.BuildErrorOutput(r.Spec.Name, r.Err, reader, diagfmt.JSONOpts{Max: maxDiagnostics})
		}
		if err = diagfmt.JSON(out, payload); err != nil {
			return err
		}
	} else {
		printCheckSummary(cmd, sum, reader, checkPrintOpts{
			quiet:          quiet,
			uniforms:       showUniforms,
			timings:        showTimings,
			maxDiagnostics: maxDiagnostics,
		})
	}
	if sum.Failed > 0 {
		return reportedError{fmt.Errorf("%d of %d programs failed", sum.Failed, len(sum.Results))}
	}
	return nil
}

type checkPrintOpts struct {
	quiet          bool
	uniforms       bool
	timings        bool
	maxDiagnostics int
}

func printCheckSummary(cmd *cobra.Command, sum *pipeline.Summary, reader *source.Reader, opts checkPrintOpts) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	okMark := color.New(color.FgGreen).Sprint("ok")
	failMark := color.New(color.FgRed, color.Bold).Sprint("FAIL")
	faint := color.New(color.Faint)

	for _, r := range sum.Results {
		if r.Failed() {
			fmt.Fprintf(out, "%-4s %s\n", failMark, r.Spec.Name)
			diagfmt.PrettyError(errOut, r.Err, reader, diagfmt.PrettyOpts{
				Color:   useColor(),
				Context: 1,
				Max:     opts.maxDiagnostics,
			})
			continue
		}
		if !opts.quiet {
			fmt.Fprintf(out, "%-4s %s %s\n", okMark, r.Spec.Name,
				faint.Sprintf("(%d files, %d uniforms, %s, %.1f ms)",
					countFiles(r), r.Table.Len(), r.Digest.Short(), millis(r.Elapsed)))
		}
		if opts.uniforms {
			printTable(out, r.Table)
		}
		if opts.timings {
			fmt.Fprint(out, indent(r.Timer.Summary(), "     "))
		}
	}
	if !opts.quiet {
		fmt.Fprintf(out, "%d programs, %d failed in %.1f ms\n", len(sum.Results), sum.Failed, millis(sum.Elapsed))
	}
}

func countFiles(r pipeline.Result) int {
	seen := make(map[string]bool)
	for _, u := range r.Units {
		for _, f := range u.IncludedFiles {
			seen[f] = true
		}
	}
	return len(seen)
}

func printTable(out io.Writer, t *uniform.Table) {
	if t.Len() == 0 {
		fmt.Fprintln(out, "     ! No Uniforms !")
		return
	}
	faint := color.New(color.Faint)
	for _, s := range t.Slots() {
		loc := "unbound"
		if l := s.Location(); l.Valid {
			loc = fmt.Sprintf("loc %d", l.Index)
		}
		fmt.Fprintf(out, "     %-24s %s\n", s.Signature(), faint.Sprint(loc))
	}
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(l)
	}
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
