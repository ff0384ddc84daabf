package uniform

import (
	"fmt"

	"lumen/internal/diag"
	"lumen/internal/trace"
)

// Decl is a uniform declaration found in source.
type Decl struct {
	Type   string
	Name   string
	Origin diag.Origin
}

// Binder looks up uniform locations in a linked program.
type Binder interface {
	UniformLocation(name string) (int32, bool)
}

// Reflect builds the table for decls. Every slot starts at the zero value of
// its kind and dirty. Declarations repeated with the same type (a uniform
// shared by two stages) share one slot; a repeat with a different type is a
// UniformTypeMismatch. When binder is non-nil each slot is bound to its
// location; uniforms the linker dropped stay unbound and are only logged.
func Reflect(decls []Decl, binder Binder, span *trace.Span) (*Table, error) {
	sp := span.Child("Reflecting uniforms")
	t, err := buildTable(decls, binder, sp)
	sp.End(trace.Outcome(err))
	return t, err
}

func buildTable(decls []Decl, binder Binder, sp *trace.Span) (*Table, error) {
	t := NewTable()
	for _, d := range decls {
		k, ok := ParseKind(d.Type)
		if !ok {
			sp.Error("unknown type %q for uniform %q at %s", d.Type, d.Name, d.Origin)
			return nil, &diag.Error{Code: diag.UnknownUniformType, Path: d.Origin.File, Name: d.Name, Detail: d.Type}
		}
		s, created := t.insert(d.Name, k)
		if !created && s.Kind() != k {
			sp.Error("uniform %q declared as %s and %s", d.Name, s.Kind(), k)
			return nil, &diag.Error{
				Code:   diag.UniformTypeMismatch,
				Path:   d.Origin.File,
				Name:   d.Name,
				Detail: fmt.Sprintf("%s vs %s", s.Kind(), k),
			}
		}
	}

	if t.Len() == 0 {
		sp.Info("! No Uniforms !")
		return t, nil
	}
	for _, s := range t.slots {
		if binder != nil {
			if loc, ok := binder.UniformLocation(s.name); ok {
				s.loc = Location{Index: loc, Valid: true}
			} else {
				sp.Info("%q is not active in the linked program", s.name)
			}
		}
		sp.Info("%q: %s", s.name, s.Kind())
	}
	return t, nil
}
