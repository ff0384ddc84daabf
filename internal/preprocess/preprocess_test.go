package preprocess

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/trace"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func process(t *testing.T, root, entry string) (*MergedUnit, error) {
	t.Helper()
	return New(source.NewReader(root), nil).Process(entry)
}

func TestProcessExpandsIncludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag":     "#version 410\n#include \"lighting.glsl\"\nvoid main() {}\n",
		"lighting.glsl": "uniform vec3 lightPos;\nvec3 light() { return lightPos; }\n",
	})
	u, err := process(t, root, "main.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantLines := []string{"#version 410", "uniform vec3 lightPos;", "vec3 light() { return lightPos; }", "void main() {}"}
	if !slices.Equal(u.Lines, wantLines) {
		t.Fatalf("Lines = %q", u.Lines)
	}
	wantMap := LineMap{{File: "main.frag", Line: 1}, {File: "lighting.glsl", Line: 1}, {File: "lighting.glsl", Line: 2}, {File: "main.frag", Line: 3}}
	if !slices.Equal(u.LineMap, wantMap) {
		t.Fatalf("LineMap = %v", u.LineMap)
	}
	if !slices.Equal(u.IncludedFiles, []string{"main.frag", "lighting.glsl"}) {
		t.Fatalf("IncludedFiles = %v", u.IncludedFiles)
	}
	if len(u.Uniforms) != 1 || u.Uniforms[0].Name != "lightPos" || u.Uniforms[0].Type != "vec3" {
		t.Fatalf("Uniforms = %+v", u.Uniforms)
	}
	if u.Uniforms[0].Origin != (diag.Origin{File: "lighting.glsl", Line: 1}) {
		t.Errorf("uniform origin = %v", u.Uniforms[0].Origin)
	}
	if !strings.HasSuffix(u.Source(), "void main() {}\n") {
		t.Errorf("Source() = %q", u.Source())
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.frag":    "#include \"fx/b.glsl\"\nuniform float time;\n",
		"fx/b.glsl": "#include \"c.glsl\"\nuniform int mode;\n",
		"fx/c.glsl": "float c;\n",
	})
	first, err := process(t, root, "a.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := process(t, root, "a.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first.Hash() != second.Hash() || !slices.Equal(first.LineMap, second.LineMap) {
		t.Fatalf("two runs over the same tree differ")
	}
}

func TestLineMapCoversEveryLine(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.frag": "line1\n#include \"b.glsl\"\n\nline4\n",
		"b.glsl": "\n\nb3\n",
	})
	u, err := process(t, root, "a.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(u.LineMap) != len(u.Lines) {
		t.Fatalf("len(LineMap)=%d, len(Lines)=%d", len(u.LineMap), len(u.Lines))
	}
	r := source.NewReader(root)
	for i, o := range u.LineMap {
		f, err := r.Read(o.File)
		if err != nil {
			t.Fatalf("Read %s: %v", o.File, err)
		}
		lines := f.Lines()
		if o.Line < 1 || o.Line > len(lines) {
			t.Fatalf("entry %d points outside %s: %d", i, o.File, o.Line)
		}
		if lines[o.Line-1] != u.Lines[i] {
			t.Errorf("merged line %d = %q, source says %q", i+1, u.Lines[i], lines[o.Line-1])
		}
	}
}

func TestDiamondIncludeFails(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A.frag": "#include \"B\"\n#include \"C\"\n",
		"B":      "float b;\n",
		"C":      "#include \"B\"\n",
	})
	u, err := process(t, root, "A.frag")
	if u != nil {
		t.Fatalf("expected no unit on failure")
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.DuplicateInclude || de.Path != "B" {
		t.Fatalf("expected DuplicateInclude(B), got %v", err)
	}
}

func TestCycleFails(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.glsl": "#include \"b.glsl\"\n",
		"b.glsl": "#include \"a.glsl\"\n",
	})
	_, err := process(t, root, "a.glsl")
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.DuplicateInclude || de.Detail != "cycle" {
		t.Fatalf("expected cyclic DuplicateInclude, got %v", err)
	}
}

func TestIgnoredIncludeIsEmitted(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "/* <ignore> */\n#include \"editor_only.glsl\"\n/* </ignore> */\nvoid main() {}\n",
	})
	u, err := process(t, root, "main.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(u.Lines) != 4 || u.Lines[1] != "#include \"editor_only.glsl\"" {
		t.Fatalf("Lines = %q", u.Lines)
	}
	if u.LineMap[1] != (diag.Origin{File: "main.frag", Line: 2}) {
		t.Errorf("LineMap[1] = %v", u.LineMap[1])
	}
	if len(u.IncludedFiles) != 1 {
		t.Errorf("ignored include must not be entered: %v", u.IncludedFiles)
	}
}

func TestNestedIgnoreStartIsNoop(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "/* <ignore> */\n/*<ignore>*/\n#include \"x.glsl\"\n/* </ignore> */\n#include \"y.glsl\"\n",
		"y.glsl":    "float y;\n",
	})
	u, err := process(t, root, "main.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !slices.Equal(u.IncludedFiles, []string{"main.frag", "y.glsl"}) {
		t.Fatalf("IncludedFiles = %v", u.IncludedFiles)
	}
}

func TestUnterminatedIgnoreRunsToEOF(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "/* <ignore> */\n#include \"missing.glsl\"\n",
	})
	if _, err := process(t, root, "main.frag"); err != nil {
		t.Fatalf("unterminated ignore region should not fail: %v", err)
	}
}

func TestCommentedIncludeIsText(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "  // #include \"missing.glsl\"\n// uniform float hidden;\nvoid main() {}\n",
	})
	u, err := process(t, root, "main.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(u.Lines) != 3 || len(u.Uniforms) != 0 {
		t.Fatalf("Lines = %q, Uniforms = %+v", u.Lines, u.Uniforms)
	}
}

func TestRelativeResolution(t *testing.T) {
	root := writeTree(t, map[string]string{
		"post/blur.frag":    "#include \"../common/noise.glsl\"\n#include \"kernel.glsl\"\n",
		"post/kernel.glsl":  "float k;\n",
		"common/noise.glsl": "float n;\n",
	})
	u, err := process(t, root, "post/blur.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"post/blur.frag", "common/noise.glsl", "post/kernel.glsl"}
	if !slices.Equal(u.IncludedFiles, want) {
		t.Fatalf("IncludedFiles = %v, want %v", u.IncludedFiles, want)
	}
}

func TestMissingIncludeIsNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "#include \"nope.glsl\"\n",
	})
	_, err := process(t, root, "main.frag")
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.NotFound || de.Path != "nope.glsl" {
		t.Fatalf("expected NotFound(nope.glsl), got %v", err)
	}
}

func TestProcessLogsIncludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag":     "#include \"lighting.glsl\"\n",
		"lighting.glsl": "float l;\n",
	})
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelInfo, trace.FormatText, false)
	sp := trace.Begin(tr, "Creating main")
	if _, err := New(source.NewReader(root), sp).Process("main.frag"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	sp.End("")
	out := buf.String()
	for _, want := range []string{"Processing main.frag (Success)", `Including "lighting.glsl"`} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}

func TestQualifiedAndListUniforms(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.frag": "uniform highp float time;\nuniform vec2 a, b;\nuniform float plain; uniform mediump int n;\n",
	})
	u, err := process(t, root, "main.frag")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	var got []string
	for _, d := range u.Uniforms {
		got = append(got, d.Type+" "+d.Name)
	}
	want := []string{"float time", "vec2 a", "vec2 b", "float plain", "int n"}
	if !slices.Equal(got, want) {
		t.Fatalf("Uniforms = %q, want %q", got, want)
	}
	if u.Uniforms[2].Origin != (diag.Origin{File: "main.frag", Line: 2}) {
		t.Errorf("b origin = %v", u.Uniforms[2].Origin)
	}
}

func TestUnparsedUniformKeepsRawType(t *testing.T) {
	tests := []struct {
		line     string
		wantType string
		wantName string
	}{
		{"uniform float weights[4];", "float weights[4]", "weights[4]"},
		{"uniform float gain = 1.0;", "float gain = 1.0", "gain = 1.0"},
		{"uniform float;", "float <unnamed>", ""},
		{"uniform vec2 a, ;", "vec2 a, <unnamed>", ""},
	}
	for _, tt := range tests {
		root := writeTree(t, map[string]string{"main.frag": tt.line + "\n"})
		u, err := process(t, root, "main.frag")
		if err != nil {
			t.Fatalf("%s: %v", tt.line, err)
		}
		last := u.Uniforms[len(u.Uniforms)-1]
		if last.Type != tt.wantType || last.Name != tt.wantName {
			t.Errorf("%s: got %q %q, want %q %q", tt.line, last.Type, last.Name, tt.wantType, tt.wantName)
		}
	}
}

func TestIncludeAboveRootIsNotFound(t *testing.T) {
	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, "outside.glsl"), []byte("uniform float leaked;\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(parent, "shaders")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "main.frag"), []byte("#include \"../outside.glsl\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := process(t, root, "main.frag")
	if !errors.Is(err, diag.NotFound) || !errors.Is(err, source.ErrOutsideRoot) {
		t.Fatalf("err = %v, want NotFound outside root", err)
	}
}
