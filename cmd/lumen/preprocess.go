package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/preprocess"
	"lumen/internal/source"
	"lumen/internal/trace"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [flags] <entry>",
	Short: "Print the merged source of an entry file",
	Long: `Expand #include directives of <entry> (relative to the source root) and
print the merged unit. --origins prefixes every line with the file and line
it came from; --uniforms lists the uniform declarations found.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

func init() {
	preprocessCmd.Flags().String("format", "text", "output format (text|json)")
	preprocessCmd.Flags().Bool("origins", false, "prefix each merged line with its origin")
	preprocessCmd.Flags().Bool("uniforms", false, "list uniform declarations instead of the source")
}

type lineMapEntry struct {
	Merged int    `json:"merged"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

type uniformEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

type preprocessPayload struct {
	Entry    string         `json:"entry"`
	Hash     string         `json:"hash"`
	Included []string       `json:"included"`
	Uniforms []uniformEntry `json:"uniforms"`
	LineMap  []lineMapEntry `json:"line_map"`
	Source   string         `json:"source"`
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	origins, err := cmd.Flags().GetBool("origins")
	if err != nil {
		return fmt.Errorf("failed to get origins flag: %w", err)
	}
	uniforms, err := cmd.Flags().GetBool("uniforms")
	if err != nil {
		return fmt.Errorf("failed to get uniforms flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	pc, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}
	reader := source.NewReader(pc.root)
	sp := trace.Begin(tracerFor(cmd), "Preprocess")
	unit, err := preprocess.New(reader, sp).Process(args[0])
	sp.End(trace.Outcome(err))
	if err != nil {
		diagfmt.PrettyError(cmd.ErrOrStderr(), err, reader, diagfmt.PrettyOpts{Color: useColor()})
		return reportedError{err}
	}

	out := cmd.OutOrStdout()
	switch {
	case format == "json":
		return writePreprocessJSON(out, unit)
	case uniforms:
		printUniforms(out, unit)
	case origins:
		printWithOrigins(out, unit)
	default:
		_, err = io.WriteString(out, unit.Source())
	}
	return err
}

func writePreprocessJSON(out io.Writer, unit *preprocess.MergedUnit) error {
	hash := unit.Hash()
	payload := preprocessPayload{
		Entry:    unit.Entry,
		Hash:     hex.EncodeToString(hash[:]),
		Included: unit.IncludedFiles,
		Uniforms: make([]uniformEntry, len(unit.Uniforms)),
		LineMap:  make([]lineMapEntry, len(unit.LineMap)),
		Source:   unit.Source(),
	}
	for i, u := range unit.Uniforms {
		payload.Uniforms[i] = uniformEntry{Type: u.Type, Name: u.Name, File: u.Origin.File, Line: u.Origin.Line}
	}
	for i, o := range unit.LineMap {
		payload.LineMap[i] = lineMapEntry{Merged: i + 1, File: o.File, Line: o.Line}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printUniforms(out io.Writer, unit *preprocess.MergedUnit) {
	if len(unit.Uniforms) == 0 {
		fmt.Fprintln(out, "! No Uniforms !")
		return
	}
	faint := color.New(color.Faint)
	for _, u := range unit.Uniforms {
		fmt.Fprintf(out, "%-8s %s %s\n", u.Type, u.Name, faint.Sprintf("(%s)", u.Origin))
	}
}

func printWithOrigins(out io.Writer, unit *preprocess.MergedUnit) {
	width := 0
	for _, o := range unit.LineMap {
		width = max(width, len(o.String()))
	}
	faint := color.New(color.Faint)
	for i, line := range unit.Lines {
		origin := unit.LineMap[i].String()
		fmt.Fprintf(out, "%s %s %s\n",
			faint.Sprintf("%4d", i+1),
			faint.Sprint(origin+strings.Repeat(" ", width-len(origin))),
			line)
	}
}
