package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindOpen starts a named scope; following events are indented under it.
	KindOpen Kind = iota + 1 // scope start
	// KindClose ends the innermost open scope.
	KindClose // scope end
	// KindInfo is a plain message inside the current scope.
	KindInfo
	// KindDebug is a verbose message, emitted only at LevelDebug.
	KindDebug
	// KindError reports a failure; emitted at every level except off.
	KindError
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindInfo:
		return "info"
	case KindDebug:
		return "debug"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Depth    int               // scope nesting depth, 0 for top level
	SpanID   uint64            // owning span
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID (for concurrent spans)
	Name     string            // scope name or message text
	Detail   string            // optional detail, e.g. "Success" on close
	Extra    map[string]string // extensible key-value pairs
}
