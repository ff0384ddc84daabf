package diag

import (
	"regexp"
	"strconv"
	"strings"
)

// MergedFile names the group for diagnostics whose merged line number lies
// outside the line map (compilers occasionally report the line past EOF).
const MergedFile = "<merged>"

// LineMapper is the view of a preprocessed unit that Map needs.
type LineMapper interface {
	// Origin returns the original position of a 1-based merged line.
	Origin(mergedLine int) (Origin, bool)
	// SourceFiles lists every file that contributed to the unit, in inclusion order.
	SourceFiles() []string
}

var (
	// <string>(<line>) : error <code>: <message>
	errorLineRE = regexp.MustCompile(`^\s*\d+\((\d+)\)\s*:\s*error\s+(\w+)\s*:\s*(.*)$`)
	// <string>:<line>(<col>): error: <message>
	mesaLineRE = regexp.MustCompile(`^\s*\d+:(\d+)\(\d+\)\s*:\s*error\s*:\s*(.*)$`)
)

// Map parses a raw compiler log whose line numbers refer to the merged unit
// and regroups its messages by originating file, rewriting line numbers to
// file-local ones. Groups follow the unit's inclusion order; files without
// messages are omitted. Lines that do not look like an error are skipped.
func Map(rawLog string, unit LineMapper) []FileDiagnostics {
	files := unit.SourceFiles()
	byFile := make(map[string][]Diagnostic, len(files))
	var stray []Diagnostic

	for _, line := range strings.Split(rawLog, "\n") {
		line = strings.TrimRight(line, "\r\x00")
		d, ok := parseLogLine(line)
		if !ok {
			continue
		}
		origin, ok := unit.Origin(d.MergedLine)
		if !ok {
			d.File = MergedFile
			d.Line = d.MergedLine
			stray = append(stray, d)
			continue
		}
		d.File = origin.File
		d.Line = origin.Line
		byFile[origin.File] = append(byFile[origin.File], d)
	}

	out := make([]FileDiagnostics, 0, len(byFile)+1)
	for _, f := range files {
		if items := byFile[f]; len(items) > 0 {
			out = append(out, FileDiagnostics{File: f, Items: items})
		}
	}
	if len(stray) > 0 {
		out = append(out, FileDiagnostics{File: MergedFile, Items: stray})
	}
	return out
}

func parseLogLine(line string) (Diagnostic, bool) {
	if m := errorLineRE.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Diagnostic{}, false
		}
		return Diagnostic{Severity: SevError, Code: m[2], MergedLine: n, Message: strings.TrimSpace(m[3])}, true
	}
	if m := mesaLineRE.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Diagnostic{}, false
		}
		return Diagnostic{Severity: SevError, MergedLine: n, Message: strings.TrimSpace(m[2])}, true
	}
	return Diagnostic{}, false
}
