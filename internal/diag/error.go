package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies pipeline failures. A Code is also an error value so it can
// be used as an errors.Is target.
type Code uint8

const (
	// UnknownCode is never produced by the pipeline.
	UnknownCode Code = iota
	// NotFound: a source file is missing under the configured root.
	NotFound
	// DuplicateInclude: a file was included more than once in one unit.
	DuplicateInclude
	// UnknownUniformType: a uniform declaration uses a type outside the supported set.
	UnknownUniformType
	// CompileFailed: the compiler rejected a merged unit.
	CompileFailed
	// LinkFailed: the linker rejected the compiled stages.
	LinkFailed
	// UniformTypeMismatch: the same uniform name was seen with two different types.
	UniformTypeMismatch
	// WatchTargetMissing: a watched file disappeared between polls.
	WatchTargetMissing
)

var codeNames = [...]string{
	UnknownCode:         "Unknown",
	NotFound:            "NotFound",
	DuplicateInclude:    "DuplicateInclude",
	UnknownUniformType:  "UnknownUniformType",
	CompileFailed:       "CompileFailed",
	LinkFailed:          "LinkFailed",
	UniformTypeMismatch: "UniformTypeMismatch",
	WatchTargetMissing:  "WatchTargetMissing",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Error implements error so a bare Code can be matched with errors.Is.
func (c Code) Error() string {
	return c.String()
}

// Error is the structured failure returned by every pipeline stage.
type Error struct {
	Code Code
	// Path is the root-relative file the error concerns, when there is one.
	Path string
	// Name is the uniform or program name the error concerns, when there is one.
	Name string
	// Detail holds short extra context, e.g. "float vs int" for a type mismatch.
	Detail string
	// Files holds compiler diagnostics mapped back onto source files (CompileFailed).
	Files []FileDiagnostics
	// Log holds the raw linker output (LinkFailed).
	Log string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Code {
	case NotFound:
		fmt.Fprintf(&b, "%q: file not found", e.Path)
	case DuplicateInclude:
		fmt.Fprintf(&b, "%q included multiple times", e.Path)
	case UnknownUniformType:
		fmt.Fprintf(&b, "unknown uniform type %q for %q", e.Detail, e.Name)
	case CompileFailed:
		fmt.Fprintf(&b, "compiling %q failed", e.Path)
		if n := countDiagnostics(e.Files); n > 0 {
			fmt.Fprintf(&b, " with %d error(s)", n)
		}
	case LinkFailed:
		fmt.Fprintf(&b, "linking %q failed", e.Name)
		if log := strings.TrimSpace(e.Log); log != "" {
			b.WriteString(": ")
			b.WriteString(log)
		}
	case UniformTypeMismatch:
		fmt.Fprintf(&b, "uniform %q changed type (%s)", e.Name, e.Detail)
	case WatchTargetMissing:
		fmt.Fprintf(&b, "watched file %q disappeared", e.Path)
	default:
		b.WriteString(e.Code.String())
	}
	if e.Err != nil && e.Code != LinkFailed {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf returns the Code of the first *Error in err's chain, or UnknownCode.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownCode
}

func countDiagnostics(files []FileDiagnostics) int {
	n := 0
	for _, f := range files {
		n += len(f.Items)
	}
	return n
}
