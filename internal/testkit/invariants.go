package testkit

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"lumen/internal/preprocess"
	"lumen/internal/source"
)

// CheckUnitInvariants runs the structural checks every merged unit must pass:
// 1) Lines and LineMap have the same length
// 2) IncludedFiles has no duplicates and starts with the entry
// 3) every origin names an included file and a line that exists in it
// 4) every merged line is the text of the line its origin points at
// 5) every uniform's origin is a merged line that declares it
//
// Files the reader has not loaded yet are read from its root, which must
// hold the same content the unit was built from.
func CheckUnitInvariants(unit *preprocess.MergedUnit, reader *source.Reader) error {
	if unit == nil || reader == nil {
		return fmt.Errorf("nil unit or reader")
	}

	// 1) parallel slices
	if len(unit.Lines) != len(unit.LineMap) {
		return fmt.Errorf("lines/line map length mismatch: %d vs %d", len(unit.Lines), len(unit.LineMap))
	}

	// 2) inclusion list
	if len(unit.IncludedFiles) == 0 || unit.IncludedFiles[0] != source.Resolve("", unit.Entry) {
		return fmt.Errorf("included files %v do not start with entry %q", unit.IncludedFiles, unit.Entry)
	}
	for i, f := range unit.IncludedFiles {
		if slices.Contains(unit.IncludedFiles[:i], f) {
			return fmt.Errorf("%q listed twice in included files", f)
		}
	}

	// 3) + 4) origins
	for i, o := range unit.LineMap {
		if !slices.Contains(unit.IncludedFiles, o.File) {
			return fmt.Errorf("merged line %d: origin %s is not an included file", i+1, o)
		}
		file, ok := reader.GetByPath(o.File)
		if !ok {
			var err error
			if file, err = reader.Read(o.File); err != nil {
				return fmt.Errorf("merged line %d: %w", i+1, err)
			}
		}
		if o.Line < 1 || o.Line > len(file.Lines()) {
			return fmt.Errorf("merged line %d: origin %s out of range (%d lines)", i+1, o, len(file.Lines()))
		}
		n, err := safecast.Conv[uint32](o.Line)
		if err != nil {
			return fmt.Errorf("merged line %d: %w", i+1, err)
		}
		want := file.GetLine(n)
		if unit.Lines[i] != want {
			return fmt.Errorf("merged line %d: text %q differs from %s %q", i+1, unit.Lines[i], o, want)
		}
	}

	// 5) uniforms
	for _, u := range unit.Uniforms {
		idx := slices.Index(unit.LineMap, u.Origin)
		if idx < 0 {
			return fmt.Errorf("uniform %q: origin %s not in line map", u.Name, u.Origin)
		}
		typ, _, _ := strings.Cut(u.Type, " ")
		if line := unit.Lines[idx]; !strings.Contains(line, "uniform") || !strings.Contains(line, u.Name) || !strings.Contains(line, typ) {
			return fmt.Errorf("uniform %s %s: merged line %d %q does not declare it", u.Type, u.Name, idx+1, line)
		}
	}
	return nil
}
