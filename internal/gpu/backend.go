// Package gpu is the narrow graphics API the shader pipeline needs: compile,
// link, look up uniforms, bind, upload and delete.
package gpu

import "lumen/internal/uniform"

// Stage is a shader pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

type (
	ShaderID  uint32
	ProgramID uint32
)

// Backend is implemented by the OpenGL backend and by gputest. All calls
// happen on the goroutine that owns the context.
type Backend interface {
	// CompileShader compiles one stage. On failure ok is false and log holds
	// the compiler output; no shader object is left behind.
	CompileShader(stage Stage, src string) (id ShaderID, log string, ok bool)
	// LinkProgram links compiled shaders. On failure ok is false and log
	// holds the linker output.
	LinkProgram(shaders []ShaderID) (id ProgramID, log string, ok bool)
	// UniformLocation reports the location of an active uniform.
	UniformLocation(p ProgramID, name string) (int32, bool)
	// UseProgram binds p; 0 unbinds.
	UseProgram(p ProgramID)
	// Upload sets a uniform of the bound program.
	Upload(loc int32, v uniform.Value)
	DeleteShader(id ShaderID)
	DeleteProgram(id ProgramID)
}

// Binder adapts a linked program to uniform.Binder.
type Binder struct {
	Backend Backend
	Program ProgramID
}

func (b Binder) UniformLocation(name string) (int32, bool) {
	return b.Backend.UniformLocation(b.Program, name)
}
