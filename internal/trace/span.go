package trace

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	globalSeq   uint64
	globalSpans uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return atomic.AddUint64(&globalSeq, 1)
}

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 {
	return atomic.AddUint64(&globalSpans, 1)
}

// getGoroutineID extracts the current goroutine ID using runtime.Stack.
func getGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	// "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}

	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}

	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span is an open logging scope. Messages emitted through a span are
// indented one level deeper than the span itself. A nil *Span is valid and
// discards everything, so callers never need to check.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	depth    int
	name     string
	started  time.Time
	extra    map[string]string
}

// Begin opens a top-level scope and emits its open event.
func Begin(t Tracer, name string) *Span {
	return begin(t, name, 0, 0)
}

func begin(t Tracer, name string, parent uint64, depth int) *Span {
	if t == nil || !t.Enabled() {
		return nil
	}

	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      getGoroutineID(),
		depth:    depth,
		name:     name,
		started:  time.Now(),
	}
	s.emit(KindOpen, depth, name, "", nil)
	return s
}

// Child opens a scope nested under s.
func (s *Span) Child(name string) *Span {
	if s == nil {
		return nil
	}
	return begin(s.tracer, name, s.id, s.depth+1)
}

// End emits the close event and returns the scope's duration. detail is
// typically "Success" or "Failed".
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	s.emit(KindClose, s.depth, s.name, detail, s.extra)
	return dur
}

// Info emits a message inside the scope.
func (s *Span) Info(format string, args ...any) {
	s.message(KindInfo, format, args...)
}

// Debug emits a verbose message inside the scope.
func (s *Span) Debug(format string, args ...any) {
	s.message(KindDebug, format, args...)
}

// Error emits a failure message inside the scope.
func (s *Span) Error(format string, args ...any) {
	s.message(KindError, format, args...)
}

func (s *Span) message(kind Kind, format string, args ...any) {
	if s == nil || !s.tracer.Level().ShouldEmit(kind) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.emit(kind, s.depth+1, msg, "", nil)
}

func (s *Span) emit(kind Kind, depth int, name, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     kind,
		Depth:    depth,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     name,
		Detail:   detail,
		Extra:    extra,
	})
}

// WithExtra adds a key-value pair to the close event.
// Returns the span for method chaining.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Outcome maps an error to the close detail used across the pipeline.
func Outcome(err error) string {
	if err != nil {
		return "Failed"
	}
	return "Success"
}
