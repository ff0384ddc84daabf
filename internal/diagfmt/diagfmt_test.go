package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
)

func sampleFiles() []diag.FileDiagnostics {
	return []diag.FileDiagnostics{
		{File: "lib/lighting.glsl", Items: []diag.Diagnostic{
			{Severity: diag.SevError, Code: "C1008", File: "lib/lighting.glsl", Line: 2, MergedLine: 14, Message: "undefined variable \"foo\""},
		}},
		{File: "main.frag", Items: []diag.Diagnostic{
			{Severity: diag.SevError, File: "main.frag", Line: 1, MergedLine: 1, Message: "bad version"},
		}},
	}
}

func newReader(t *testing.T) *source.Reader {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "lib", "lighting.glsl"), []byte("uniform vec3 lightPos;\nvec3 x = foo;\nvoid f() {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return source.NewReader(root)
}

func TestPrettyGroupsByFile(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleFiles(), newReader(t), PrettyOpts{Context: 1})
	out := buf.String()

	for _, want := range []string{
		"lib/lighting.glsl\n",
		"  lib/lighting.glsl:2: error C1008: undefined variable \"foo\"",
		"> 2 | vec3 x = foo;",
		"  1 | uniform vec3 lightPos;",
		"main.frag:1: error: bad version",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "lib/lighting.glsl") > strings.Index(out, "main.frag") {
		t.Errorf("groups out of order:\n%s", out)
	}
}

func TestPrettyMaxAndPathModes(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleFiles(), nil, PrettyOpts{Max: 1, PathMode: PathModeBasename})
	out := buf.String()
	if !strings.Contains(out, "lighting.glsl:2:") || strings.Contains(out, "lib/") {
		t.Errorf("basename mode not applied:\n%s", out)
	}
	if !strings.Contains(out, "... and 1 more") {
		t.Errorf("truncation note missing:\n%s", out)
	}

	r := newReader(t)
	buf.Reset()
	Pretty(&buf, sampleFiles()[:1], r, PrettyOpts{Context: -1, PathMode: PathModeAbsolute})
	if !strings.Contains(buf.String(), r.Abs("lib/lighting.glsl")) {
		t.Errorf("absolute path missing:\n%s", buf.String())
	}
}

func TestPrettyError(t *testing.T) {
	var buf bytes.Buffer
	err := &diag.Error{Code: diag.CompileFailed, Path: "main.frag", Files: sampleFiles()}
	PrettyError(&buf, err, nil, PrettyOpts{})
	out := buf.String()
	if !strings.HasPrefix(out, "error: [CompileFailed] compiling \"main.frag\" failed with 2 error(s)") {
		t.Errorf("header = %q", out)
	}

	buf.Reset()
	PrettyError(&buf, errors.New("boom"), nil, PrettyOpts{})
	if buf.String() != "error: boom\n" {
		t.Errorf("plain error = %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	err := &diag.Error{Code: diag.CompileFailed, Path: "main.frag", Files: sampleFiles(), Log: "raw"}
	out := BuildErrorOutput("main", err, nil, JSONOpts{IncludeMerged: true, Max: 1})

	var buf bytes.Buffer
	if werr := JSON(&buf, out); werr != nil {
		t.Fatal(werr)
	}
	var back DiagnosticsOutput
	if jerr := json.Unmarshal(buf.Bytes(), &back); jerr != nil {
		t.Fatal(jerr)
	}
	if back.Count != 2 || len(back.Diagnostics) != 1 {
		t.Fatalf("count=%d len=%d", back.Count, len(back.Diagnostics))
	}
	d := back.Diagnostics[0]
	if d.File != "lib/lighting.glsl" || d.Line != 2 || d.MergedLine != 14 || d.Severity != "error" {
		t.Errorf("diagnostic = %+v", d)
	}
	if back.Error == nil || back.Error.Code != "CompileFailed" || back.Error.Log != "" {
		t.Errorf("error = %+v", back.Error)
	}

	link := BuildErrorOutput("main", &diag.Error{Code: diag.LinkFailed, Name: "main", Log: "no main"}, nil, JSONOpts{})
	if link.Error.Log != "no main" || link.Count != 0 {
		t.Errorf("link output = %+v", link)
	}
}
