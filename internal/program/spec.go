package program

import (
	"errors"
	"fmt"

	"lumen/internal/gpu"
)

// Spec names a program and the entry file of each stage, relative to the
// source root. A program is either graphics (Vertex and Fragment) or compute.
type Spec struct {
	Name     string
	Vertex   string
	Fragment string
	Compute  string
}

// Stage is one entry file compiled for one pipeline stage.
type Stage struct {
	Stage gpu.Stage
	Entry string
}

// IsCompute reports whether the spec describes a compute program.
func (s Spec) IsCompute() bool {
	return s.Compute != ""
}

// Stages lists the stages to compile in order.
func (s Spec) Stages() []Stage {
	if s.IsCompute() {
		return []Stage{{gpu.StageCompute, s.Compute}}
	}
	return []Stage{{gpu.StageVertex, s.Vertex}, {gpu.StageFragment, s.Fragment}}
}

// Validate checks that exactly one program shape is described.
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("program has no name")
	}
	graphics := s.Vertex != "" || s.Fragment != ""
	switch {
	case s.IsCompute() && graphics:
		return fmt.Errorf("program %q: compute programs cannot have vertex or fragment stages", s.Name)
	case !s.IsCompute() && (s.Vertex == "" || s.Fragment == ""):
		return fmt.Errorf("program %q: needs both vertex and fragment, or compute", s.Name)
	}
	return nil
}
