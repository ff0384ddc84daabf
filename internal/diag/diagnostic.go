package diag

import "fmt"

// Origin is a position in an original source file: the root-relative path and
// a 1-based line number.
type Origin struct {
	File string
	Line int
}

func (o Origin) String() string {
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Diagnostic is one compiler message mapped back onto its original file.
type Diagnostic struct {
	Severity Severity
	// Code is the compiler's own message code (e.g. "C0000"); empty when the
	// compiler does not print one.
	Code string
	File string
	// Line is the 1-based line in File.
	Line int
	// MergedLine is the line number the compiler reported.
	MergedLine int
	Message    string
}

// FileDiagnostics groups the diagnostics that originate in one file.
type FileDiagnostics struct {
	File  string
	Items []Diagnostic
}
