package preprocess

import (
	"regexp"
	"slices"
	"strings"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/trace"
)

var (
	ignoreStartRE = regexp.MustCompile(`/\*\s*<ignore>\s*\*/`)
	ignoreEndRE   = regexp.MustCompile(`/\*\s*</ignore>\s*\*/`)
	includeRE     = regexp.MustCompile(`^\s*#\s*include\s+"([^"]+)"`)
	uniformRE     = regexp.MustCompile(`\buniform\s+([^;]*);`)
	identRE       = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

var precisionQualifiers = map[string]bool{"highp": true, "mediump": true, "lowp": true}

// Preprocessor expands entry files read through a source.Reader.
type Preprocessor struct {
	reader *source.Reader
	span   *trace.Span
}

// New returns a Preprocessor. Include activity is logged under span, which
// may be nil.
func New(reader *source.Reader, span *trace.Span) *Preprocessor {
	return &Preprocessor{reader: reader, span: span}
}

// expansion is the state of one Process call. It is threaded through the
// recursion explicitly; the Preprocessor itself holds no per-call state.
type expansion struct {
	chain    []string            // files currently being expanded, outermost first
	included map[string]struct{} // every file entered so far
	unit     *MergedUnit
}

// Process expands entry (root-relative) depth-first. It fails with
// diag.NotFound for a missing file and diag.DuplicateInclude when any file
// is entered a second time. No partial unit is returned on failure.
func (p *Preprocessor) Process(entry string) (*MergedUnit, error) {
	sp := p.span.Child("Processing " + entry)
	ex := &expansion{
		included: make(map[string]struct{}),
		unit:     &MergedUnit{Entry: entry},
	}
	err := p.expand(ex, source.Resolve("", entry), sp)
	sp.End(trace.Outcome(err))
	if err != nil {
		return nil, err
	}
	return ex.unit, nil
}

func (p *Preprocessor) expand(ex *expansion, path string, sp *trace.Span) error {
	if _, dup := ex.included[path]; dup {
		detail := "diamond"
		if ex.inChain(path) {
			detail = "cycle"
		}
		sp.Error("%q included multiple times (%s via %s)", path, detail, strings.Join(ex.chain, " -> "))
		return &diag.Error{Code: diag.DuplicateInclude, Path: path, Detail: detail}
	}
	ex.included[path] = struct{}{}
	ex.unit.IncludedFiles = append(ex.unit.IncludedFiles, path)
	sp.Info("Including %q", path)

	f, err := p.reader.Read(path)
	if err != nil {
		return err
	}
	if f.Flags != 0 {
		sp.Debug("%q normalized on load (%s)", path, f.Flags)
	}

	ex.chain = append(ex.chain, path)
	defer func() { ex.chain = ex.chain[:len(ex.chain)-1] }()

	ignoring := false
	for i, line := range f.Lines() {
		// маркеры: повторный start внутри региона ничего не меняет
		if ignoreStartRE.MatchString(line) {
			ignoring = true
		}
		if ignoreEndRE.MatchString(line) {
			ignoring = false
		}

		commented := strings.HasPrefix(strings.TrimSpace(line), "//")
		if m := includeRE.FindStringSubmatch(line); m != nil && !commented && !ignoring {
			if err := p.expand(ex, source.Resolve(path, m[1]), sp); err != nil {
				return err
			}
			continue
		}

		origin := diag.Origin{File: path, Line: i + 1}
		ex.unit.Lines = append(ex.unit.Lines, line)
		ex.unit.LineMap = append(ex.unit.LineMap, origin)

		if commented {
			continue
		}
		for _, m := range uniformRE.FindAllStringSubmatch(line, -1) {
			ex.unit.Uniforms = append(ex.unit.Uniforms, parseUniform(m[1], origin)...)
		}
	}
	return nil
}

// inChain reports whether path is one of the files still being expanded.
func (ex *expansion) inChain(path string) bool {
	return slices.Contains(ex.chain, path)
}

// parseUniform splits the text between `uniform` and `;`. Precision
// qualifiers are dropped and declarator lists expanded. A declarator that is
// not a plain name (array, initializer, missing) keeps the raw text as its
// type, so reflection rejects it instead of it vanishing.
func parseUniform(body string, origin diag.Origin) []UniformDecl {
	fields := strings.Fields(strings.ReplaceAll(body, ",", " , "))
	for len(fields) > 0 && precisionQualifiers[fields[0]] {
		fields = fields[1:]
	}
	raw := strings.TrimSpace(body)
	if len(fields) < 2 {
		return []UniformDecl{{Type: raw + " <unnamed>", Origin: origin}}
	}
	typ := fields[0]
	var out []UniformDecl
	for _, name := range strings.Split(strings.Join(fields[1:], " "), ",") {
		name = strings.TrimSpace(name)
		switch {
		case identRE.MatchString(name):
			out = append(out, UniformDecl{Type: typ, Name: name, Origin: origin})
		case name == "":
			out = append(out, UniformDecl{Type: raw + " <unnamed>", Origin: origin})
		default:
			out = append(out, UniformDecl{Type: typ + " " + name, Name: name, Origin: origin})
		}
	}
	return out
}
