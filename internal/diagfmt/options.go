package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeRelative prints paths relative to the source root, as the
	// pipeline reports them.
	PathModeRelative PathMode = iota
	// PathModeAbsolute joins paths onto the source root.
	PathModeAbsolute
	PathModeBasename
)

// ParsePathMode maps a flag value onto a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "relative":
		return PathModeRelative, true
	case "absolute":
		return PathModeAbsolute, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeRelative, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Context is the number of source lines shown around each diagnostic;
	// negative hides the source entirely.
	Context  int
	PathMode PathMode
	Max      int // 0 - без ограничения
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	Max      int // обрезка вывода, не Bag
	// IncludeMerged adds the merged line number the compiler reported.
	IncludeMerged bool
}
