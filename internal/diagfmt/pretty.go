package diagfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"

	"lumen/internal/diag"
	"lumen/internal/source"
)

type palette struct {
	file, loc, sev, code, gutter, marker *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		file:   color.New(color.Bold, color.Underline),
		loc:    color.New(color.Bold),
		sev:    color.New(color.FgRed, color.Bold),
		code:   color.New(color.FgYellow),
		gutter: color.New(color.FgBlue),
		marker: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.file, p.loc, p.sev, p.code, p.gutter, p.marker} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty печатает диагностики, сгруппированные по исходным файлам:
//
//	<file>
//	  <file>:<line>: error <code>: <message>
//	     <line> | <source>
//
// Исходные строки читаются через reader (nil - без контекста).
func Pretty(w io.Writer, files []diag.FileDiagnostics, reader *source.Reader, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	shown := 0
	for _, fd := range files {
		if opts.Max > 0 && shown >= opts.Max {
			break
		}
		path := formatPath(fd.File, opts.PathMode, reader)
		pal.file.Fprintln(w, path)

		var file *source.File
		if reader != nil && opts.Context >= 0 && fd.File != diag.MergedFile {
			if f, ok := reader.GetByPath(fd.File); ok {
				file = f
			} else if f, err := reader.Read(fd.File); err == nil {
				file = f
			}
		}

		for _, d := range fd.Items {
			if opts.Max > 0 && shown >= opts.Max {
				break
			}
			shown++
			fmt.Fprintf(w, "  %s %s", pal.loc.Sprintf("%s:%d:", path, d.Line), pal.sev.Sprint(d.Severity.String()))
			if d.Code != "" {
				fmt.Fprintf(w, " %s", pal.code.Sprint(d.Code))
			}
			fmt.Fprintf(w, ": %s\n", d.Message)
			if file != nil {
				printContext(w, file, d.Line, opts.Context, pal)
			}
		}
	}
	if total := count(files); opts.Max > 0 && total > shown {
		fmt.Fprintf(w, "... and %d more\n", total-shown)
	}
}

func printContext(w io.Writer, f *source.File, line, ctx int, pal palette) {
	lines := f.Lines()
	from := max(1, line-ctx)
	to := min(len(lines), line+ctx)
	width := len(fmt.Sprint(to))
	for n := from; n <= to; n++ {
		text := f.GetLine(safecast.MustConv[uint32](n))
		mark := " "
		if n == line {
			mark = pal.marker.Sprint(">")
		}
		fmt.Fprintf(w, "   %s %s %s %s\n", mark, pal.gutter.Sprintf("%*d", width, n), pal.gutter.Sprint("|"), text)
	}
}

// PrettyError prints err. A *diag.Error carrying mapped compiler output is
// printed as a header line followed by Pretty; anything else as one line.
func PrettyError(w io.Writer, err error, reader *source.Reader, opts PrettyOpts) {
	if err == nil {
		return
	}
	pal := newPalette(opts.Color)
	var e *diag.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "%s %s\n", pal.sev.Sprint("error:"), err)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", pal.sev.Sprint("error:"), pal.code.Sprintf("[%s]", e.Code), e.Error())
	switch {
	case len(e.Files) > 0:
		Pretty(w, e.Files, reader, opts)
	case e.Code == diag.CompileFailed && strings.TrimSpace(e.Log) != "":
		// лог не разобрался ни одной строкой - показываем как есть
		fmt.Fprintln(w, strings.TrimRight(e.Log, "\n"))
	}
}

func count(files []diag.FileDiagnostics) int {
	n := 0
	for _, f := range files {
		n += len(f.Items)
	}
	return n
}
