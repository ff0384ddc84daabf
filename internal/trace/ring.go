package trace

import (
	"io"
	"sync"
	"time"
)

const defaultRingSize = 4096

// RingTracer keeps the most recent events in memory. Positions returned by
// Mark are absolute event counts, so a caller can ask for just the events
// one operation produced (e.g. a failed reload) with Since.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	total uint64 // events accepted since creation
	level Level
}

// NewRingTracer returns a ring holding up to capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Kind) {
		return
	}
	t.mu.Lock()
	t.buf[t.total%uint64(len(t.buf))] = *ev
	t.total++
	t.mu.Unlock()
}

// Mark returns the current position.
func (t *RingTracer) Mark() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Since returns the events emitted after mark that are still buffered,
// oldest first. Events that were overwritten are silently missing.
func (t *RingTracer) Since(mark uint64) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := uint64(len(t.buf))
	first := mark
	if t.total > size && first < t.total-size {
		first = t.total - size
	}
	if first >= t.total {
		return nil
	}
	out := make([]Event, 0, t.total-first)
	for i := first; i < t.total; i++ {
		out = append(out, t.buf[i%size])
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (t *RingTracer) Snapshot() []Event { return t.Since(0) }

// Dump writes every buffered event to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return writeEvents(w, t.Snapshot(), format)
}

// DumpSince writes the events emitted after mark to w.
func (t *RingTracer) DumpSince(w io.Writer, mark uint64, format Format) error {
	return writeEvents(w, t.Since(mark), format)
}

func writeEvents(w io.Writer, events []Event, format Format) error {
	f := NewFormatter(format, false, time.Time{})
	for i := range events {
		if _, err := w.Write(f.Bytes(&events[i])); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
