package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lumen/internal/diag"
)

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestReaderVersioning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.frag", []byte("void main() {}\n"))

	r := NewReader(root)
	first, err := r.Read("main.frag")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	writeFile(t, root, "main.frag", []byte("void main() { discard; }\n"))
	second, err := r.Read("./main.frag")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected a new FileID for the second read")
	}
	latest, ok := r.GetLatest("main.frag")
	if !ok || latest != second.ID {
		t.Errorf("GetLatest = %d, %v; want %d", latest, ok, second.ID)
	}
	if got := string(r.Get(first.ID).Content); got != "void main() {}\n" {
		t.Errorf("old version changed: %q", got)
	}
	if first.Hash == second.Hash {
		t.Errorf("expected different hashes")
	}
}

func TestReaderNotFound(t *testing.T) {
	r := NewReader(t.TempDir())
	_, err := r.Read("missing.glsl")
	if !errors.Is(err, diag.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.Path != "missing.glsl" {
		t.Fatalf("expected path in error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist")
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", []string{}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"blank lines", "a\n\n\nb\n", []string{"a", "", "", "b"}},
		{"lone cr", "a\r\nb\r", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader("")
			f := r.Get(r.AddVirtual("x.glsl", []byte(tt.content)))
			got := f.Lines()
			if len(got) != len(tt.want) {
				t.Fatalf("Lines() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i+1, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCRLFNormalization(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.glsl", []byte("a\r\nb\r\n"))

	f, err := NewReader(root).Read("a.glsl")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(f.Content) != "a\nb\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("expected FileNormalizedCRLF flag")
	}
}

func TestBOMRemoval(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bom.glsl", []byte{0xEF, 0xBB, 0xBF, 'x', '\n'})

	f, err := NewReader(root).Read("bom.glsl")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(f.Content) != "x\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileDecodedUTF16 != 0 {
		t.Errorf("unexpected flags %s", f.Flags)
	}
}

func TestUTF16Decoding(t *testing.T) {
	root := t.TempDir()
	// "hi\n" in UTF-16LE with BOM
	writeFile(t, root, "wide.glsl", []byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\n', 0})

	f, err := NewReader(root).Read("wide.glsl")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(f.Content) != "hi\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileDecodedUTF16 == 0 {
		t.Error("expected FileDecodedUTF16 flag")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct{ from, target, want string }{
		{"main.frag", "lighting.glsl", "lighting.glsl"},
		{"fx/blur.frag", "common.glsl", "fx/common.glsl"},
		{"fx/blur.frag", "../common.glsl", "common.glsl"},
		{"fx/deep/a.glsl", "./b.glsl", "fx/deep/b.glsl"},
		{"fx/a.glsl", "/lib/noise.glsl", "lib/noise.glsl"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.from, tt.target); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.from, tt.target, got, tt.want)
		}
	}
}

func TestFileFlagsString(t *testing.T) {
	if got := (FileHadBOM | FileNormalizedCRLF).String(); got != "bom|crlf" {
		t.Errorf("got %q", got)
	}
	if got := FileFlags(0).String(); got != "none" {
		t.Errorf("got %q", got)
	}
}

func TestReadOutsideRootIsNotFound(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "shaders")
	writeFile(t, parent, "secret.glsl", []byte("uniform float leaked;\n"))
	writeFile(t, root, "main.frag", []byte("void main() {}\n"))

	r := NewReader(root)
	for _, p := range []string{"../secret.glsl", Resolve("main.frag", "../../secret.glsl"), "lib/../../secret.glsl"} {
		_, err := r.Read(p)
		if !errors.Is(err, diag.NotFound) || !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Read(%q) = %v, want NotFound outside root", p, err)
		}
	}
	if _, err := r.Read("lib/../main.frag"); err != nil {
		t.Errorf("a path that stays inside the root must load: %v", err)
	}
}
