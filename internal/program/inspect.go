package program

import (
	"lumen/internal/observ"
	"lumen/internal/preprocess"
	"lumen/internal/trace"
	"lumen/internal/uniform"
)

// Inspection is the result of preprocessing and reflecting a spec without a
// GPU: every uniform is reported but none is bound to a location.
type Inspection struct {
	Spec  Spec
	Units []*preprocess.MergedUnit
	Table *uniform.Table
}

// Inspect runs the CPU half of Build. It needs no backend and is safe to call
// from any goroutine.
func Inspect(spec Spec, root string, span *trace.Span, timer *observ.Timer) (*Inspection, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	sp := span.Child("Inspecting " + spec.Name)
	units, err := preprocessStages(root, spec.Stages(), sp, timer)
	if err != nil {
		sp.End(trace.Outcome(err))
		return nil, err
	}
	var table *uniform.Table
	err = timer.Time("reflect", func() error {
		var err error
		table, err = uniform.Reflect(declsOf(units), nil, sp)
		return err
	})
	sp.End(trace.Outcome(err))
	if err != nil {
		return nil, err
	}
	return &Inspection{Spec: spec, Units: units, Table: table}, nil
}

// IncludedFiles lists every file any stage read, in first-seen order.
func (in *Inspection) IncludedFiles() []string { return includedFiles(in.Units) }

// Preview keeps the latest Inspection of a spec and re-inspects on demand.
// It is the GPU-less counterpart of Program for watching sources.
type Preview struct {
	spec    Spec
	root    string
	tracer  trace.Tracer
	current *Inspection
}

// NewPreview inspects spec once; the initial inspection must succeed.
func NewPreview(spec Spec, root string, tracer trace.Tracer) (*Preview, error) {
	sp := trace.Begin(tracer, "Creating "+spec.Name)
	in, err := Inspect(spec, root, sp, nil)
	sp.End(trace.Outcome(err))
	if err != nil {
		return nil, err
	}
	return &Preview{spec: spec, root: root, tracer: tracer, current: in}, nil
}

// TryReload re-inspects the sources. On failure the previous inspection is
// kept; on success uniform values are carried over as Program.TryReload does.
func (p *Preview) TryReload() (ReloadOutcome, error) {
	sp := trace.Begin(p.tracer, "Reloading "+p.spec.Name)
	in, err := Inspect(p.spec, p.root, sp, nil)
	if err != nil {
		sp.End(trace.Outcome(err))
		return ReloadOutcome{}, err
	}
	out := uniform.CarryOver(p.current.Table, in.Table)
	for _, m := range out.Reset {
		sp.Info("%q changed type %s -> %s, reset to default", m.Name, m.Old, m.New)
	}
	for _, name := range out.Missing {
		sp.Info("%q no longer declared", name)
	}
	p.current = in
	sp.End(trace.Outcome(nil))
	return out, nil
}

func (p *Preview) Name() string            { return p.spec.Name }
func (p *Preview) Table() *uniform.Table   { return p.current.Table }
func (p *Preview) Inspection() *Inspection { return p.current }
func (p *Preview) SourcePaths() []string   { return sourcePaths(p.root, p.current.Units) }
