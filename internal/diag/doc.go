// Package diag defines the error taxonomy and the diagnostic model shared by
// the shader pipeline.
//
// # Errors
//
// Every failure the pipeline reports is a *Error carrying a Code. Codes are
// themselves errors, so callers match them with errors.Is:
//
//	if errors.Is(err, diag.DuplicateInclude) { ... }
//
// CompileFailed errors carry the compiler log already mapped back onto the
// original files (see Map); LinkFailed errors carry the raw linker log, since
// linkers report program-level problems that have no merged line number.
//
// # Mapping
//
// Shader compilers only ever see the merged unit produced by the preprocessor,
// so their line numbers refer to merged lines. Map is the single place where
// those numbers are translated back to (file, line) pairs using the unit's
// line map. It is deliberately independent of compilation so offline tools
// (the `lumen map` command, static lints) can reuse it on captured logs.
//
// Package diag performs no IO and no formatting; rendering lives in
// internal/diagfmt.
package diag
