// Package program builds GPU programs from shader sources and swaps them on
// reload while carrying uniform values over.
package program

import (
	"fmt"
	"path/filepath"

	"lumen/internal/diag"
	"lumen/internal/gpu"
	"lumen/internal/observ"
	"lumen/internal/preprocess"
	"lumen/internal/source"
	"lumen/internal/trace"
	"lumen/internal/uniform"
)

// Options configure Build.
type Options struct {
	// Root is the directory entry files and includes are resolved against.
	Root    string
	Backend gpu.Backend
	// Tracer receives the Creating/Reloading scopes; nil disables logging.
	Tracer trace.Tracer
	// Timer, when set, records per-phase durations of every build.
	Timer *observ.Timer
}

// Program is a linked GPU program with its uniform table. It is owned by a
// single goroutine: the one holding the GL context.
type Program struct {
	spec    Spec
	root    string
	backend gpu.Backend
	tracer  trace.Tracer
	timer   *observ.Timer

	id    gpu.ProgramID
	table *uniform.Table
	units []*preprocess.MergedUnit
	bound bool
}

// ReloadOutcome reports what happened to each uniform across a reload.
type ReloadOutcome = uniform.Transfer

// artifacts is everything a successful compile produces; nothing of it is
// visible until it is installed into a Program.
type artifacts struct {
	id    gpu.ProgramID
	table *uniform.Table
	units []*preprocess.MergedUnit
}

// Build compiles, links and reflects spec. The returned program is not bound.
func Build(spec Spec, opts Options) (*Program, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("program %q: no backend", spec.Name)
	}
	p := &Program{
		spec:    spec,
		root:    opts.Root,
		backend: opts.Backend,
		tracer:  opts.Tracer,
		timer:   opts.Timer,
	}

	sp := trace.Begin(p.tracer, "Creating "+spec.Name)
	b, err := p.build(sp)
	sp.End(trace.Outcome(err))
	if err != nil {
		return nil, err
	}
	p.id, p.table, p.units = b.id, b.table, b.units
	return p, nil
}

// TryReload rebuilds the program from the current sources. On failure the
// program, its table and its GPU object are left exactly as they were. On
// success uniform values are carried into the new table wherever name and
// type still match, the old GPU program is deleted and every uniform is
// uploaded to the new one.
func (p *Program) TryReload() (ReloadOutcome, error) {
	sp := trace.Begin(p.tracer, "Reloading "+p.spec.Name)
	b, err := p.build(sp)
	if err != nil {
		sp.End(trace.Outcome(err))
		return ReloadOutcome{}, err
	}

	out := uniform.CarryOver(p.table, b.table)
	for _, m := range out.Reset {
		sp.Info("%q changed type %s -> %s, reset to default", m.Name, m.Old, m.New)
	}
	for _, name := range out.Missing {
		sp.Info("%q no longer declared", name)
	}

	p.backend.DeleteProgram(p.id)
	p.id, p.table, p.units = b.id, b.table, b.units

	p.backend.UseProgram(p.id)
	p.table.MarkAllDirty()
	p.table.Upload(p.backend, true)
	if !p.bound {
		p.backend.UseProgram(0)
	}
	sp.End(trace.Outcome(nil))
	return out, nil
}

func (p *Program) build(sp *trace.Span) (artifacts, error) {
	stages := p.spec.Stages()
	units, err := preprocessStages(p.root, stages, sp, p.timer)
	if err != nil {
		return artifacts{}, err
	}

	shaders := make([]gpu.ShaderID, 0, len(stages))
	defer func() {
		for _, id := range shaders {
			p.backend.DeleteShader(id)
		}
	}()
	for i, st := range stages {
		err = p.timer.Time("compile "+st.Stage.String(), func() error {
			id, log, ok := p.backend.CompileShader(st.Stage, units[i].Source())
			if !ok {
				return compileError(st, units[i], log, sp)
			}
			shaders = append(shaders, id)
			return nil
		})
		if err != nil {
			return artifacts{}, err
		}
	}

	var id gpu.ProgramID
	err = p.timer.Time("link", func() error {
		var log string
		var ok bool
		id, log, ok = p.backend.LinkProgram(shaders)
		if !ok {
			sp.Error("link failed: %s", log)
			return &diag.Error{Code: diag.LinkFailed, Name: p.spec.Name, Log: log}
		}
		return nil
	})
	if err != nil {
		return artifacts{}, err
	}

	var table *uniform.Table
	err = p.timer.Time("reflect", func() error {
		var err error
		table, err = uniform.Reflect(declsOf(units), gpu.Binder{Backend: p.backend, Program: id}, sp)
		return err
	})
	if err != nil {
		p.backend.DeleteProgram(id)
		return artifacts{}, err
	}
	return artifacts{id: id, table: table, units: units}, nil
}

// preprocessStages expands every stage entry with a fresh reader, so each
// build sees the files as they are on disk now.
func preprocessStages(root string, stages []Stage, sp *trace.Span, timer *observ.Timer) ([]*preprocess.MergedUnit, error) {
	pp := preprocess.New(source.NewReader(root), sp)
	units := make([]*preprocess.MergedUnit, 0, len(stages))
	for _, st := range stages {
		var unit *preprocess.MergedUnit
		err := timer.Time("preprocess "+st.Stage.String(), func() error {
			var err error
			unit, err = pp.Process(st.Entry)
			return err
		})
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

func compileError(st Stage, unit *preprocess.MergedUnit, log string, sp *trace.Span) error {
	files := diag.Map(log, unit)
	sp.Error("compiling %s (%s) failed", st.Entry, st.Stage)
	for _, f := range files {
		for _, d := range f.Items {
			sp.Error("%s:%d: %s", d.File, d.Line, d.Message)
		}
	}
	return &diag.Error{Code: diag.CompileFailed, Path: st.Entry, Name: st.Stage.String(), Files: files, Log: log}
}

func declsOf(units []*preprocess.MergedUnit) []uniform.Decl {
	var out []uniform.Decl
	for _, u := range units {
		for _, d := range u.Uniforms {
			out = append(out, uniform.Decl{Type: d.Type, Name: d.Name, Origin: d.Origin})
		}
	}
	return out
}

// Use binds the program and uploads every dirty uniform.
func (p *Program) Use() {
	p.backend.UseProgram(p.id)
	p.bound = true
	p.HandleUniforms(false)
}

// Unuse unbinds the program.
func (p *Program) Unuse() {
	p.backend.UseProgram(0)
	p.bound = false
}

// HandleUniforms uploads dirty uniforms, or all of them when force is set.
// It does nothing while the program is not bound.
func (p *Program) HandleUniforms(force bool) {
	if !p.bound {
		return
	}
	p.table.Upload(p.backend, force)
}

// Delete releases the GPU program. The Program must not be used afterwards.
func (p *Program) Delete() {
	if p.bound {
		p.Unuse()
	}
	p.backend.DeleteProgram(p.id)
	p.id = 0
}

// Uniform returns a handle to the named uniform. The handle follows the
// program across reloads.
func (p *Program) Uniform(name string) (uniform.Handle, error) {
	return uniform.NewHandle(p, name)
}

// Table returns the current uniform table. It is replaced on every reload.
func (p *Program) Table() *uniform.Table { return p.table }

func (p *Program) ID() gpu.ProgramID { return p.id }
func (p *Program) Spec() Spec        { return p.spec }
func (p *Program) Name() string      { return p.spec.Name }
func (p *Program) Bound() bool       { return p.bound }

// Units returns the merged unit of every stage, in stage order.
func (p *Program) Units() []*preprocess.MergedUnit { return p.units }

// IncludedFiles lists every root-relative file any stage read, without
// duplicates, in first-seen order.
func (p *Program) IncludedFiles() []string { return includedFiles(p.units) }

// SourcePaths returns IncludedFiles as on-disk paths.
func (p *Program) SourcePaths() []string { return sourcePaths(p.root, p.units) }

func includedFiles(units []*preprocess.MergedUnit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range units {
		for _, f := range u.IncludedFiles {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func sourcePaths(root string, units []*preprocess.MergedUnit) []string {
	files := includedFiles(units)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Join(root, filepath.FromSlash(f))
	}
	return out
}
