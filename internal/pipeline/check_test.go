package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/gpu/gputest"
	"lumen/internal/program"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) last(name string, stage Stage) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Program == name && r.events[i].Stage == stage {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func fixture(t *testing.T) (string, []program.Spec) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "quad.vert", "#version 460\nvoid main() {}\n")
	writeFile(t, root, "main.frag", "#version 460\n#include \"lib/light.glsl\"\nvoid main() {}\n")
	writeFile(t, root, "lib/light.glsl", "uniform vec3 lightPos;\n")
	writeFile(t, root, "sim.comp", "#version 460\nuniform float dt;\nvoid main() {}\n")
	return root, []program.Spec{
		{Name: "main", Vertex: "quad.vert", Fragment: "main.frag"},
		{Name: "sim", Compute: "sim.comp"},
		{Name: "broken", Vertex: "quad.vert", Fragment: "missing.frag"},
	}
}

func TestCheckInspectsInParallel(t *testing.T) {
	root, specs := fixture(t)
	rec := &recorder{}

	sum, err := Check(context.Background(), Options{Root: root, Specs: specs, Jobs: 2, Sink: rec, Timings: true})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("failed = %d, want 1", sum.Failed)
	}
	if !errors.Is(sum.Results[2].Err, diag.NotFound) {
		t.Errorf("broken: err = %v", sum.Results[2].Err)
	}
	if sum.Results[0].Table.Len() != 1 || sum.Results[1].Table.Len() != 1 {
		t.Errorf("unexpected tables")
	}
	if len(sum.Results[0].Timer.Phases()) == 0 {
		t.Errorf("timings not recorded")
	}
	if e, ok := rec.last("broken", StageInspect); !ok || e.Status != StatusError {
		t.Errorf("broken inspect event = %+v", e)
	}
	if e, ok := rec.last("", StageDone); !ok || e.Status != StatusError {
		t.Errorf("done event = %+v", e)
	}
	if _, ok := rec.last("main", StageCompile); ok {
		t.Errorf("compile stage must not run without a backend")
	}
}

func TestCheckDigestTracksSources(t *testing.T) {
	root, specs := fixture(t)
	specs = specs[:1]

	first, _ := Check(context.Background(), Options{Root: root, Specs: specs})
	again, _ := Check(context.Background(), Options{Root: root, Specs: specs})
	if first.Results[0].Digest != again.Results[0].Digest {
		t.Fatal("digest is not deterministic")
	}
	writeFile(t, root, "lib/light.glsl", "uniform vec3 lightPos;\nuniform float intensity;\n")
	changed, _ := Check(context.Background(), Options{Root: root, Specs: specs})
	if changed.Results[0].Digest == first.Results[0].Digest {
		t.Fatal("digest ignored an included file change")
	}
}

func TestCheckCompilesWithBackend(t *testing.T) {
	root, specs := fixture(t)
	be := gputest.New()
	be.FailCompile("lightPos", "0:2(1): error: syntax error\n")
	rec := &recorder{}

	sum, err := Check(context.Background(), Options{Root: root, Specs: specs, Backend: be, Sink: rec})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sum.Failed != 2 {
		t.Fatalf("failed = %d, want 2", sum.Failed)
	}
	if !errors.Is(sum.Results[0].Err, diag.CompileFailed) {
		t.Fatalf("main: err = %v", sum.Results[0].Err)
	}
	if sum.Results[1].Err != nil {
		t.Fatalf("sim: err = %v", sum.Results[1].Err)
	}
	if !sum.Results[1].Table.Slots()[0].Location().Valid {
		t.Error("compiled table should carry locations")
	}
	if e, _ := rec.last("broken", StageCompile); e.Status != StatusSkipped {
		t.Errorf("broken compile event = %+v", e)
	}
	if be.LiveShaders() != 0 {
		t.Errorf("%d shaders leaked", be.LiveShaders())
	}

	bag := sum.Diagnostics(10)
	items := bag.Items()
	if len(items) != 1 || items[0].File != "lib/light.glsl" || items[0].Line != 1 {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestCheckCancelled(t *testing.T) {
	root, specs := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, Options{Root: root, Specs: specs}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
