package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSpanIndentation(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelInfo, FormatText, false)

	sp := Begin(tr, "Creating main")
	child := sp.Child("Reflecting uniforms")
	child.Info("%q: %s", "time", "float")
	child.Debug("hidden at info level")
	child.End("")
	sp.End(Outcome(nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}
	want := []string{
		"\u2192 Creating main",
		"  \u2192 Reflecting uniforms",
		"    \u2022 \"time\": float",
		"  \u2190 Reflecting uniforms",
		"\u2190 Creating main (Success)",
	}
	for i, w := range want {
		_, body, ok := strings.Cut(lines[i], "] ")
		if !ok || body != w {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], w)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON, false)

	sp := Begin(tr, "Reloading main")
	sp.Info("not shown")
	sp.Error("compile failed")
	sp.End(Outcome(errors.New("x")))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the error event, got:\n%s", buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("invalid ndjson: %v", err)
	}
	if ev["kind"] != "error" || ev["name"] != "compile failed" {
		t.Errorf("unexpected event %v", ev)
	}
}

func TestNilSpanIsSafe(t *testing.T) {
	sp := Begin(Nop, "anything")
	if sp != nil {
		t.Fatalf("expected nil span for disabled tracer")
	}
	sp.Child("x").Info("y")
	sp.Error("z")
	if d := sp.End("Failed"); d != 0 {
		t.Errorf("expected zero duration, got %v", d)
	}
}

func TestRingWrapAndDump(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	sp := Begin(ring, "scope")
	for i := 0; i < 4; i++ {
		sp.Debug("msg %d", i)
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Name != "msg 1" || events[2].Name != "msg 3" {
		t.Errorf("unexpected order: %q .. %q", events[0].Name, events[2].Name)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Errorf("expected 3 dumped lines:\n%s", buf.String())
	}

	mark := ring.Mark()
	if got := ring.Since(mark); len(got) != 0 {
		t.Errorf("expected nothing after mark, got %d", len(got))
	}
	sp.Info("after mark")
	got := ring.Since(mark)
	if len(got) != 1 || got[0].Name != "after mark" {
		t.Errorf("Since(mark) = %+v", got)
	}
	// позиции, вытесненные из буфера, просто пропадают
	if got := ring.Since(0); len(got) != 3 || got[2].Name != "after mark" {
		t.Errorf("Since(0) = %d events", len(got))
	}
	buf.Reset()
	if err := ring.DumpSince(&buf, mark, FormatText); err != nil || !strings.Contains(buf.String(), "after mark") {
		t.Errorf("DumpSince: %v\n%s", err, buf.String())
	}
}

func TestRingOfMulti(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(8, LevelInfo)
	multi := NewMultiTracer(LevelInfo, NewStreamTracer(&buf, LevelInfo, FormatText, false), ring)
	got, ok := RingOf(multi)
	if !ok || got != ring {
		t.Fatalf("RingOf did not find the ring")
	}
	if _, ok := RingOf(Nop); ok {
		t.Errorf("Nop has no ring")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "info", "DEBUG"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("phase"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestNewBuildsSinksForMode(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelInfo, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("both: got %T", tr)
	}
	if _, ok := RingOf(tr); !ok {
		t.Errorf("both: no ring")
	}
	if tr, _ := New(Config{Level: LevelInfo, Mode: ModeRing}); tr == nil {
		t.Errorf("ring: nil tracer")
	} else if _, ok := tr.(*RingTracer); !ok {
		t.Errorf("ring: got %T", tr)
	}
	if tr, _ := New(Config{Level: LevelOff, Mode: ModeStream}); tr != Nop {
		t.Errorf("off: got %T", tr)
	}
	if _, err := New(Config{Level: LevelInfo, Mode: StorageMode(9)}); err == nil {
		t.Errorf("expected error for unknown mode")
	}
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth || m.String() != "both" {
		t.Errorf("ParseMode(BOTH) = %v, %v", m, err)
	}
}
