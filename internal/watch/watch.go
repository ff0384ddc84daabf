// Package watch detects modified source files by polling their mtimes.
// Polling is driven by the caller, typically once per frame, so no
// goroutine ever touches the watched state.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"lumen/internal/diag"
)

// Watch tracks one file's last seen modification time.
type Watch struct {
	Path         string
	LastModified time.Time
	// Missing is set once the file was seen gone; it is reported only on
	// that first poll.
	Missing bool
}

// New stats path and records its current mtime.
func New(path string) (Watch, error) {
	mtime, err := modTime(path)
	if err != nil {
		return Watch{}, err
	}
	return Watch{Path: path, LastModified: mtime}, nil
}

// Changed reports whether the file was modified since the last check and
// records the new mtime. Only a strictly newer mtime counts. A file that
// disappears counts as a change once, together with a
// diag.WatchTargetMissing error; later polls stay quiet until it comes back,
// which is a change again.
func (w *Watch) Changed() (bool, error) {
	mtime, err := modTime(w.Path)
	if err != nil {
		if diag.CodeOf(err) == diag.WatchTargetMissing {
			if w.Missing {
				return false, nil
			}
			w.Missing = true
			return true, err
		}
		return false, err
	}
	if w.Missing {
		w.Missing = false
		w.LastModified = mtime
		return true, nil
	}
	if mtime.After(w.LastModified) {
		w.LastModified = mtime
		return true, nil
	}
	return false, nil
}

func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, &diag.Error{Code: diag.WatchTargetMissing, Path: path, Err: err}
		}
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// Set is the group of watches for one program.
type Set struct {
	watches []Watch
}

// NewSet watches every path. It fails if any of them is missing.
func NewSet(paths []string) (*Set, error) {
	s := &Set{watches: make([]Watch, 0, len(paths))}
	for _, p := range paths {
		w, err := New(p)
		if err != nil {
			return nil, err
		}
		s.watches = append(s.watches, w)
	}
	return s, nil
}

// Poll checks every watch once. All watches are updated even after the first
// change is seen, so one edit fires exactly one reload. A file that
// vanished since the last poll is a change and is also reported as
// diag.WatchTargetMissing; the remaining watches are still polled.
func (s *Set) Poll() (bool, error) {
	changed := false
	var errs []error
	for i := range s.watches {
		c, err := s.watches[i].Changed()
		if err != nil {
			errs = append(errs, err)
		}
		changed = changed || c
	}
	return changed, errors.Join(errs...)
}

// Rebase returns a set for paths that keeps the baselines s already holds,
// so an edit saved while a rebuild was reading the files still fires on the
// next Poll. A path s does not know is stat'ed now; if its mtime is not
// before since (the rebuild's start) it gets a zero baseline and fires once.
func (s *Set) Rebase(paths []string, since time.Time) (*Set, error) {
	known := make(map[string]Watch, len(s.watches))
	for _, w := range s.watches {
		if !w.Missing {
			known[w.Path] = w
		}
	}
	out := &Set{watches: make([]Watch, 0, len(paths))}
	for _, p := range paths {
		if w, ok := known[p]; ok {
			out.watches = append(out.watches, w)
			continue
		}
		w, err := New(p)
		if err != nil {
			return nil, err
		}
		if !w.LastModified.Before(since) {
			w.LastModified = time.Time{}
		}
		out.watches = append(out.watches, w)
	}
	return out, nil
}

// Paths returns the watched paths.
func (s *Set) Paths() []string {
	out := make([]string, len(s.watches))
	for i, w := range s.watches {
		out[i] = w.Path
	}
	return out
}

func (s *Set) Len() int { return len(s.watches) }
