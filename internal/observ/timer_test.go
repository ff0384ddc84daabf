package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerTimeAndMerge(t *testing.T) {
	inner := NewTimer()
	if err := inner.Time("preprocess", func() error { return nil }); err != nil {
		t.Fatalf("Time: %v", err)
	}
	boom := errors.New("boom")
	if err := inner.Time("compile fragment", func() error { return boom }); err != boom {
		t.Fatalf("Time must return fn's error, got %v", err)
	}

	outer := NewTimer()
	outer.Merge("main", inner)
	phases := outer.Phases()
	if len(phases) != 2 || phases[0].Name != "main: preprocess" || phases[1].Note != "failed" {
		t.Fatalf("unexpected phases %+v", phases)
	}

	summary := outer.Summary()
	if !strings.Contains(summary, "main: compile fragment") || !strings.Contains(summary, "// failed") {
		t.Errorf("summary missing phases:\n%s", summary)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	if err := tm.Time("x", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if len(tm.Report().Phases) != 0 {
		t.Error("nil timer must stay empty")
	}
}
