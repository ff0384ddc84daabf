// Package hotreload ties a program to the files it was built from and
// rebuilds it when one of them changes.
package hotreload

import (
	"errors"
	"io"
	"time"

	"lumen/internal/program"
	"lumen/internal/trace"
	"lumen/internal/watch"
)

// Reloadable is the part of *program.Program the coordinator drives.
type Reloadable interface {
	Name() string
	TryReload() (program.ReloadOutcome, error)
	// SourcePaths lists the on-disk files the current build read.
	SourcePaths() []string
}

// Options configure a Coordinator.
type Options struct {
	Tracer trace.Tracer
	// Interval is the minimum time between polls; zero polls on every Tick.
	Interval time.Duration
	// FailureDump, when set and the tracer keeps a ring buffer, receives the
	// events logged by each failed reload attempt.
	FailureDump io.Writer
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Result describes one Tick.
type Result struct {
	Polled   bool
	Changed  bool
	Reloaded bool
	Outcome  program.ReloadOutcome
}

// Coordinator owns a program's watch set. Call Tick once per frame from the
// goroutine that owns the program.
type Coordinator struct {
	prog    Reloadable
	watches *watch.Set
	opts    Options
	last    time.Time

	reloads  int
	failures int
}

// New watches every file prog was built from.
func New(prog Reloadable, opts Options) (*Coordinator, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ws, err := watch.NewSet(prog.SourcePaths())
	if err != nil {
		return nil, err
	}
	return &Coordinator{prog: prog, watches: ws, opts: opts}, nil
}

// Tick polls the watch set and reloads the program when a file changed.
// Errors are logged and returned; they never leave the program in a
// half-swapped state. On a failed reload the program keeps running with
// its previous build and the same watches, so fixing the file triggers
// another attempt. A watched file that disappears triggers a reload too:
// the include may have been removed in the same edit.
func (c *Coordinator) Tick() (Result, error) {
	var res Result
	now := c.opts.Now()
	if c.opts.Interval > 0 && !c.last.IsZero() && now.Sub(c.last) < c.opts.Interval {
		return res, nil
	}
	c.last = now
	res.Polled = true

	changed, pollErr := c.watches.Poll()
	if pollErr != nil {
		sp := trace.Begin(c.opts.Tracer, "Watching "+c.prog.Name())
		sp.Error("%v", pollErr)
		sp.End(trace.Outcome(pollErr))
	}
	if !changed {
		return res, pollErr
	}
	res.Changed = true

	ring, hasRing := trace.RingOf(c.opts.Tracer)
	var mark uint64
	if hasRing {
		mark = ring.Mark()
	}
	started := time.Now()
	out, err := c.prog.TryReload()
	if err != nil {
		c.failures++
		if hasRing && c.opts.FailureDump != nil {
			_ = ring.DumpSince(c.opts.FailureDump, mark, trace.FormatText) //nolint:errcheck
		}
		return res, errors.Join(pollErr, err)
	}
	res.Reloaded = true
	res.Outcome = out
	c.reloads++

	ws, err := c.watches.Rebase(c.prog.SourcePaths(), started)
	if err != nil {
		// программа уже новая; старые watches остаются до следующего reload
		return res, err
	}
	c.watches = ws
	return res, nil
}

// Watched returns the paths currently watched.
func (c *Coordinator) Watched() []string { return c.watches.Paths() }

// Stats returns the number of successful and failed reloads.
func (c *Coordinator) Stats() (reloads, failures int) { return c.reloads, c.failures }
