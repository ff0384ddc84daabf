package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

const sampleManifest = `[project]
name = "demo"
root = "shaders"

[[program]]
name = "main"
vertex = "main.vert"
fragment = "main.frag"

[[program]]
name = "particles"
compute = "particles.comp"

[watch]
interval = "250ms"
snapshot = true

[window]
width = 800
`

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	nested := filepath.Join(root, "shaders", "lib")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, ManifestName) {
		t.Fatalf("path = %q", path)
	}
	if err := os.Mkdir(filepath.Join(nested, ManifestName), 0o755); err != nil {
		t.Fatal(err)
	}
	if path, ok, _ = FindManifest(nested); !ok || path != filepath.Join(root, ManifestName) {
		t.Fatalf("directory named %s should be skipped, got %q", ManifestName, path)
	}
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)

	m, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.SourceRoot(); got != filepath.Join(root, "shaders") {
		t.Errorf("SourceRoot = %q", got)
	}
	specs := m.Specs()
	if len(specs) != 2 || specs[0].Name != "main" || !specs[1].IsCompute() {
		t.Fatalf("specs = %+v", specs)
	}
	if m.Interval() != 250*time.Millisecond {
		t.Errorf("interval = %v", m.Interval())
	}
	if !m.Config.Watch.Snapshot {
		t.Error("snapshot flag lost")
	}
	if m.Config.Window.Width != 800 || m.Config.Window.Height != 720 || m.Config.Window.Title != "demo" {
		t.Errorf("window defaults = %+v", m.Config.Window)
	}
	if _, ok := m.Program("particles"); !ok {
		t.Error("Program(particles) not found")
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing project", "[[program]]\nname = \"a\"\ncompute = \"a.comp\"\n", "missing [project]"},
		{"missing name", "[project]\nroot = \".\"\n", "missing [project].name"},
		{"no programs", "[project]\nname = \"x\"\n", "no [[program]]"},
		{"half graphics", "[project]\nname = \"x\"\n[[program]]\nname = \"a\"\nvertex = \"a.vert\"\n", "needs both vertex and fragment"},
		{"duplicate", "[project]\nname = \"x\"\n[[program]]\nname = \"a\"\ncompute = \"a.comp\"\n[[program]]\nname = \"a\"\ncompute = \"b.comp\"\n", "defined twice"},
		{"unknown key", "[project]\nname = \"x\"\ncolour = \"red\"\n[[program]]\nname = \"a\"\ncompute = \"a.comp\"\n", "unknown key"},
		{"bad interval", "[project]\nname = \"x\"\n[[program]]\nname = \"a\"\ncompute = \"a.comp\"\n[watch]\ninterval = \"soon\"\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("err = %v", err)
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a := Digest{1}
	b := Digest{2}
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("Combine should depend on stage order")
	}
	if len(Combine(a).Short()) != 12 {
		t.Fatalf("Short = %q", Combine(a).Short())
	}
}
