// Package pipeline checks a set of programs: every spec is preprocessed and
// reflected in parallel, then optionally compiled and linked one by one on
// the goroutine that owns the GPU context.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"lumen/internal/diag"
	"lumen/internal/gpu"
	"lumen/internal/observ"
	"lumen/internal/preprocess"
	"lumen/internal/program"
	"lumen/internal/project"
	"lumen/internal/trace"
	"lumen/internal/uniform"
)

// Options configure Check.
type Options struct {
	Root  string
	Specs []program.Spec
	// Jobs limits parallel inspection; <= 0 means GOMAXPROCS.
	Jobs int
	// Backend, when set, compiles and links every program that inspected
	// cleanly. It is only used from the goroutine calling Check.
	Backend gpu.Backend
	Tracer  trace.Tracer
	Sink    ProgressSink
	// Timings records per-phase durations into Result.Timer.
	Timings bool
}

// Result is the outcome for one program.
type Result struct {
	Spec  program.Spec
	Units []*preprocess.MergedUnit
	Table *uniform.Table
	// Digest identifies the merged sources of every stage.
	Digest  project.Digest
	Timer   *observ.Timer
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the program did not check cleanly.
func (r *Result) Failed() bool { return r.Err != nil }

// Summary aggregates results.
type Summary struct {
	Results []Result
	Failed  int
	Elapsed time.Duration
}

// Diagnostics collects the mapped compiler diagnostics of every failed
// program into one bag.
func (s *Summary) Diagnostics(maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	for i := range s.Results {
		var e *diag.Error
		if errors.As(s.Results[i].Err, &e) {
			bag.AddFiles(e.Files)
		}
	}
	bag.Dedup()
	return bag
}

// Check runs every spec through the pipeline. Per-program failures are
// reported in Result.Err; the returned error is only non-nil when ctx is
// cancelled.
func Check(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()
	root := trace.Begin(opts.Tracer, "Checking")
	results := make([]Result, len(opts.Specs))
	for i, spec := range opts.Specs {
		results[i].Spec = spec
		if opts.Timings {
			results[i].Timer = observ.NewTimer()
		}
		emit(opts.Sink, Event{Program: spec.Name, Stage: StageInspect, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	if len(results) > 0 {
		// Результаты по индексу: каждая горутина пишет только в свой слот
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(results)))
		for i := range results {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				inspect(&results[i], opts, root)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			root.End(trace.Outcome(err))
			return nil, err
		}
	}

	if opts.Backend != nil {
		for i := range results {
			if err := ctx.Err(); err != nil {
				root.End(trace.Outcome(err))
				return nil, err
			}
			compile(&results[i], opts)
		}
	}

	sum := &Summary{Results: results, Elapsed: time.Since(started)}
	for i := range results {
		if results[i].Failed() {
			sum.Failed++
		}
	}
	status := StatusDone
	if sum.Failed > 0 {
		status = StatusError
	}
	emit(opts.Sink, Event{Stage: StageDone, Status: status, Elapsed: sum.Elapsed})
	root.WithExtra("failed", strconv.Itoa(sum.Failed)).End(trace.Outcome(nil))
	return sum, nil
}

func inspect(r *Result, opts Options, root *trace.Span) {
	emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageInspect, Status: StatusWorking})
	start := time.Now()
	in, err := program.Inspect(r.Spec, opts.Root, root, r.Timer)
	r.Elapsed = time.Since(start)
	if err != nil {
		r.Err = err
		emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageInspect, Status: StatusError, Err: err, Elapsed: r.Elapsed})
		return
	}
	r.Units, r.Table = in.Units, in.Table
	r.Digest = digestOf(in.Units)
	emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageInspect, Status: StatusDone, Elapsed: r.Elapsed})
}

func compile(r *Result, opts Options) {
	if r.Failed() {
		emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageCompile, Status: StatusSkipped})
		return
	}
	emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageCompile, Status: StatusWorking})
	start := time.Now()
	timer := observ.NewTimer()
	p, err := program.Build(r.Spec, program.Options{
		Root:    opts.Root,
		Backend: opts.Backend,
		Tracer:  opts.Tracer,
		Timer:   timer,
	})
	elapsed := time.Since(start)
	r.Elapsed += elapsed
	r.Timer.Merge("gpu ", timer)
	if err != nil {
		r.Err = err
		emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageCompile, Status: StatusError, Err: err, Elapsed: elapsed})
		return
	}
	// таблица с привязанными локациями точнее той, что дал inspect
	r.Table = p.Table()
	p.Delete()
	emit(opts.Sink, Event{Program: r.Spec.Name, Stage: StageCompile, Status: StatusDone, Elapsed: elapsed})
}

func digestOf(units []*preprocess.MergedUnit) project.Digest {
	ds := make([]project.Digest, len(units))
	for i, u := range units {
		ds[i] = u.Hash()
	}
	return project.Combine(ds...)
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
