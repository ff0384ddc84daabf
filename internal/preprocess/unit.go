package preprocess

import (
	"crypto/sha256"
	"strings"

	"lumen/internal/diag"
)

// LineMap maps merged line n (1-based) to LineMap[n-1].
type LineMap []diag.Origin

// UniformDecl is one `uniform <type> <name>;` declaration as written.
type UniformDecl struct {
	Type   string
	Name   string
	Origin diag.Origin
}

// MergedUnit is the result of expanding an entry file. It is immutable once
// Process returns it.
type MergedUnit struct {
	Entry   string
	Lines   []string
	LineMap LineMap
	// IncludedFiles lists every file that contributed, in the order each was
	// first entered; the entry file comes first.
	IncludedFiles []string
	Uniforms      []UniformDecl
}

// Origin returns where merged line n (1-based) came from.
func (u *MergedUnit) Origin(n int) (diag.Origin, bool) {
	if n < 1 || n > len(u.LineMap) {
		return diag.Origin{}, false
	}
	return u.LineMap[n-1], true
}

// SourceFiles implements diag.LineMapper.
func (u *MergedUnit) SourceFiles() []string {
	return u.IncludedFiles
}

// Source joins the lines into the text handed to the compiler.
func (u *MergedUnit) Source() string {
	if len(u.Lines) == 0 {
		return ""
	}
	return strings.Join(u.Lines, "\n") + "\n"
}

// Hash returns the sha256 of Source.
func (u *MergedUnit) Hash() [32]byte {
	return sha256.Sum256([]byte(u.Source()))
}
