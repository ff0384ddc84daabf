package diagfmt

import (
	"encoding/json"
	"errors"
	"io"

	"lumen/internal/diag"
	"lumen/internal/source"
)

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity   string `json:"severity"`
	Code       string `json:"code,omitempty"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	MergedLine int    `json:"merged_line,omitempty"`
	Message    string `json:"message"`
}

// ErrorJSON describes a pipeline failure.
type ErrorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Name    string `json:"name,omitempty"`
	Log     string `json:"log,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Program     string           `json:"program,omitempty"`
	Error       *ErrorJSON       `json:"error,omitempty"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(files []diag.FileDiagnostics, reader *source.Reader, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, count(files))}
	for _, fd := range files {
		for _, d := range fd.Items {
			out.Count++
			if opts.Max > 0 && len(out.Diagnostics) >= opts.Max {
				continue
			}
			dj := DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code,
				File:     formatPath(fd.File, opts.PathMode, reader),
				Line:     d.Line,
				Message:  d.Message,
			}
			if opts.IncludeMerged {
				dj.MergedLine = d.MergedLine
			}
			out.Diagnostics = append(out.Diagnostics, dj)
		}
	}
	return out
}

// BuildErrorOutput converts a pipeline error; mapped compiler output becomes
// the diagnostics list.
func BuildErrorOutput(program string, err error, reader *source.Reader, opts JSONOpts) DiagnosticsOutput {
	var e *diag.Error
	if err == nil {
		return DiagnosticsOutput{Program: program, Diagnostics: []DiagnosticJSON{}}
	}
	if !errors.As(err, &e) {
		return DiagnosticsOutput{
			Program:     program,
			Error:       &ErrorJSON{Code: diag.UnknownCode.String(), Message: err.Error()},
			Diagnostics: []DiagnosticJSON{},
		}
	}
	out := BuildDiagnosticsOutput(e.Files, reader, opts)
	out.Program = program
	out.Error = &ErrorJSON{Code: e.Code.String(), Message: e.Error(), Path: e.Path, Name: e.Name}
	if e.Code == diag.LinkFailed || len(e.Files) == 0 {
		out.Error.Log = e.Log
	}
	return out
}

// JSON пишет вывод с отступами.
func JSON(w io.Writer, out any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
