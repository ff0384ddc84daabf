package hotreload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"lumen/internal/diag"
	"lumen/internal/gpu/gputest"
	"lumen/internal/program"
	"lumen/internal/trace"
)

type fixture struct {
	root  string
	be    *gputest.Backend
	prog  *program.Program
	clock time.Time
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(f.root, rel)
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	// mtimes move strictly forward regardless of filesystem resolution
	f.clock = f.clock.Add(time.Second)
	if err := os.Chtimes(full, f.clock, f.clock); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func newFixture(t *testing.T, tracer trace.Tracer) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir(), be: gputest.New(), clock: time.Now().Add(-time.Hour)}
	f.write(t, "main.vert", "void main() {}\n")
	f.write(t, "main.frag", "#include \"lighting.glsl\"\nvoid main() {}\n")
	f.write(t, "lighting.glsl", "uniform float time;\n")

	p, err := program.Build(program.Spec{Name: "main", Vertex: "main.vert", Fragment: "main.frag"},
		program.Options{Root: f.root, Backend: f.be, Tracer: tracer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f.prog = p
	return f
}

func base(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestTickReloadsAndRewatches(t *testing.T) {
	f := newFixture(t, nil)
	c, err := New(f.prog, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if res, err := c.Tick(); err != nil || res.Changed {
		t.Fatalf("quiet tick: %+v, %v", res, err)
	}

	f.write(t, "noise.glsl", "uniform vec2 seed;\n")
	f.write(t, "lighting.glsl", "#include \"noise.glsl\"\nuniform float time;\n")
	res, err := c.Tick()
	if err != nil || !res.Reloaded {
		t.Fatalf("expected reload: %+v, %v", res, err)
	}
	if !slices.Contains(res.Outcome.Carried, "time") {
		t.Errorf("Carried = %v", res.Outcome.Carried)
	}
	want := []string{"main.vert", "main.frag", "lighting.glsl", "noise.glsl"}
	if got := base(c.Watched()); !slices.Equal(got, want) {
		t.Errorf("Watched = %v, want %v", got, want)
	}

	f.write(t, "noise.glsl", "uniform vec3 seed;\n")
	if res, err := c.Tick(); err != nil || !res.Reloaded {
		t.Fatalf("edit to a newly included file must reload: %+v, %v", res, err)
	}
}

func TestFailedReloadKeepsRunning(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelInfo)
	f := newFixture(t, ring)
	var dump bytes.Buffer
	c, err := New(f.prog, Options{Tracer: ring, FailureDump: &dump})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	oldID, watched := f.prog.ID(), c.Watched()

	f.be.FailCompile("oops", "0(2) : error C0000: syntax error\n")
	f.write(t, "main.frag", "#include \"lighting.glsl\"\noops\nvoid main() {}\n")
	res, err := c.Tick()
	if !errors.Is(err, diag.CompileFailed) || res.Reloaded {
		t.Fatalf("expected CompileFailed: %+v, %v", res, err)
	}
	if f.prog.ID() != oldID || !slices.Equal(c.Watched(), watched) {
		t.Fatalf("failed reload changed program or watches")
	}
	if !strings.Contains(dump.String(), "Reloading main (Failed)") {
		t.Errorf("ring buffer not dumped:\n%s", dump.String())
	}
	if strings.Contains(dump.String(), "Creating main") {
		t.Errorf("dump should hold only the failed attempt:\n%s", dump.String())
	}
	if _, failures := c.Stats(); failures != 1 {
		t.Errorf("failures = %d", failures)
	}

	f.be.Reset()
	f.write(t, "main.frag", "#include \"lighting.glsl\"\nvoid main() {}\n")
	if res, err := c.Tick(); err != nil || !res.Reloaded {
		t.Fatalf("fixing the file must reload: %+v, %v", res, err)
	}
}

func TestMissingFileIsReported(t *testing.T) {
	f := newFixture(t, nil)
	c, err := New(f.prog, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.Remove(filepath.Join(f.root, "lighting.glsl")); err != nil {
		t.Fatal(err)
	}
	res, err := c.Tick()
	if !errors.Is(err, diag.WatchTargetMissing) || !errors.Is(err, diag.NotFound) || res.Reloaded {
		t.Fatalf("expected WatchTargetMissing and NotFound: %+v, %v", res, err)
	}
	// та же пропажа не повторяется каждый кадр
	if res, err := c.Tick(); err != nil || res.Changed {
		t.Fatalf("second tick must stay quiet: %+v, %v", res, err)
	}
	if _, failures := c.Stats(); failures != 1 {
		t.Errorf("failures = %d", failures)
	}

	f.write(t, "lighting.glsl", "uniform float time;\n")
	if res, err := c.Tick(); err != nil || !res.Reloaded {
		t.Fatalf("restoring the file must reload: %+v, %v", res, err)
	}
}

func TestDeletedIncludeDroppedInSameEdit(t *testing.T) {
	f := newFixture(t, nil)
	c, err := New(f.prog, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.Remove(filepath.Join(f.root, "lighting.glsl")); err != nil {
		t.Fatal(err)
	}
	f.write(t, "main.frag", "void main() {}\n")

	res, err := c.Tick()
	if err != nil || !res.Reloaded {
		t.Fatalf("sources are valid again, expected a reload: %+v, %v", res, err)
	}
	if got := base(c.Watched()); !slices.Equal(got, []string{"main.vert", "main.frag"}) {
		t.Fatalf("watched = %v", got)
	}
	if res, err := c.Tick(); err != nil || res.Changed {
		t.Fatalf("nothing left to report: %+v, %v", res, err)
	}
	if reloads, _ := c.Stats(); reloads != 1 {
		t.Errorf("reloads = %d", reloads)
	}
}

// saveDuringReload writes a file right after the rebuild has read the
// sources, the way an editor save can land mid-reload.
type saveDuringReload struct {
	*program.Program
	save func()
}

func (s *saveDuringReload) TryReload() (program.ReloadOutcome, error) {
	out, err := s.Program.TryReload()
	if s.save != nil {
		s.save()
		s.save = nil
	}
	return out, err
}

func TestEditDuringReloadIsNotLost(t *testing.T) {
	f := newFixture(t, nil)
	prog := &saveDuringReload{Program: f.prog}
	c, err := New(prog, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prog.save = func() {
		f.write(t, "lighting.glsl", "uniform float time;\nuniform float gain;\nuniform float bias;\n")
	}
	f.write(t, "lighting.glsl", "uniform float time;\nuniform float gain;\n")
	if res, err := c.Tick(); err != nil || !res.Reloaded {
		t.Fatalf("first edit: %+v, %v", res, err)
	}
	if _, ok := f.prog.Table().Lookup("bias"); ok {
		t.Fatal("the mid-reload save should not be part of the first build")
	}
	if res, err := c.Tick(); err != nil || !res.Reloaded {
		t.Fatalf("save made during the reload must fire on the next tick: %+v, %v", res, err)
	}
	if _, ok := f.prog.Table().Lookup("bias"); !ok {
		t.Error("mid-reload save not picked up")
	}
}

func TestIntervalThrottlesPolling(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Unix(1000, 0)
	c, err := New(f.prog, Options{Interval: time.Second, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if res, _ := c.Tick(); !res.Polled {
		t.Fatalf("first tick polls")
	}
	now = now.Add(500 * time.Millisecond)
	if res, _ := c.Tick(); res.Polled {
		t.Fatalf("tick inside the interval must not poll")
	}
	now = now.Add(time.Second)
	if res, _ := c.Tick(); !res.Polled {
		t.Fatalf("tick after the interval polls")
	}
}
