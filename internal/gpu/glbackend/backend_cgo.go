//go:build !tinygo && cgo

package glbackend

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/go-gl/gl/v4.6-core/gl"

	"lumen/internal/gpu"
	"lumen/internal/uniform"
)

// Backend issues GL calls on the current context.
type Backend struct {
	vao uint32
}

// New returns a Backend for the context made current by Open.
func New() *Backend {
	return &Backend{}
}

func stageEnum(s gpu.Stage) uint32 {
	switch s {
	case gpu.StageVertex:
		return gl.VERTEX_SHADER
	case gpu.StageFragment:
		return gl.FRAGMENT_SHADER
	case gpu.StageCompute:
		return gl.COMPUTE_SHADER
	}
	panic(fmt.Sprintf("glbackend: unknown stage %d", s))
}

func (b *Backend) CompileShader(stage gpu.Stage, src string) (gpu.ShaderID, string, bool) {
	id := gl.CreateShader(stageEnum(stage))
	length, err := safecast.Conv[int32](len(src))
	if err != nil {
		gl.DeleteShader(id)
		return 0, fmt.Sprintf("source too long: %v", err), false
	}
	csource, free := gl.Strs(src + "\x00")
	gl.ShaderSource(id, 1, csource, &length)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetShaderInfoLog(id, logLen, nil, buf) })
		gl.DeleteShader(id)
		return 0, log, false
	}
	return gpu.ShaderID(id), "", true
}

func (b *Backend) LinkProgram(shaders []gpu.ShaderID) (gpu.ProgramID, string, bool) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, uint32(s))
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DetachShader(program, uint32(s))
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetProgramInfoLog(program, logLen, nil, buf) })
		gl.DeleteProgram(program)
		return 0, log, false
	}
	return gpu.ProgramID(program), "", true
}

func infoLog(n int32, read func(*uint8)) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func (b *Backend) UniformLocation(p gpu.ProgramID, name string) (int32, bool) {
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	return loc, loc >= 0
}

func (b *Backend) UseProgram(p gpu.ProgramID) {
	gl.UseProgram(uint32(p))
}

// Upload dispatches on the value's kind; every supported kind has a case.
func (b *Backend) Upload(loc int32, v uniform.Value) {
	switch k := v.Kind(); k {
	case uniform.KindBool, uniform.KindBVec2, uniform.KindBVec3, uniform.KindBVec4:
		ints := make([]int32, 0, 4)
		for _, c := range v.Bools() {
			if c {
				ints = append(ints, 1)
			} else {
				ints = append(ints, 0)
			}
		}
		uploadInts(loc, ints)
	case uniform.KindInt, uniform.KindIVec2, uniform.KindIVec3, uniform.KindIVec4:
		uploadInts(loc, v.Ints())
	case uniform.KindUint:
		gl.Uniform1uiv(loc, 1, &v.Uints()[0])
	case uniform.KindUVec2:
		gl.Uniform2uiv(loc, 1, &v.Uints()[0])
	case uniform.KindUVec3:
		gl.Uniform3uiv(loc, 1, &v.Uints()[0])
	case uniform.KindUVec4:
		gl.Uniform4uiv(loc, 1, &v.Uints()[0])
	case uniform.KindFloat:
		gl.Uniform1fv(loc, 1, &v.Floats()[0])
	case uniform.KindVec2:
		gl.Uniform2fv(loc, 1, &v.Floats()[0])
	case uniform.KindVec3:
		gl.Uniform3fv(loc, 1, &v.Floats()[0])
	case uniform.KindVec4:
		gl.Uniform4fv(loc, 1, &v.Floats()[0])
	case uniform.KindDouble:
		gl.Uniform1dv(loc, 1, &v.Doubles()[0])
	case uniform.KindDVec2:
		gl.Uniform2dv(loc, 1, &v.Doubles()[0])
	case uniform.KindDVec3:
		gl.Uniform3dv(loc, 1, &v.Doubles()[0])
	case uniform.KindDVec4:
		gl.Uniform4dv(loc, 1, &v.Doubles()[0])
	default:
		panic(fmt.Sprintf("glbackend: cannot upload %s", k))
	}
}

func uploadInts(loc int32, ints []int32) {
	switch len(ints) {
	case 1:
		gl.Uniform1iv(loc, 1, &ints[0])
	case 2:
		gl.Uniform2iv(loc, 1, &ints[0])
	case 3:
		gl.Uniform3iv(loc, 1, &ints[0])
	case 4:
		gl.Uniform4iv(loc, 1, &ints[0])
	}
}

func (b *Backend) DeleteShader(id gpu.ShaderID) {
	gl.DeleteShader(uint32(id))
}

func (b *Backend) DeleteProgram(id gpu.ProgramID) {
	gl.DeleteProgram(uint32(id))
}

// DrawFullscreen draws one attributeless triangle covering the viewport; the
// vertex shader derives positions from gl_VertexID.
func (b *Backend) DrawFullscreen() {
	if b.vao == 0 {
		gl.GenVertexArrays(1, &b.vao)
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

// Dispatch runs the bound compute program and waits for its writes.
func (b *Backend) Dispatch(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
	gl.MemoryBarrier(gl.ALL_BARRIER_BITS)
}

// Clear clears the colour buffer.
func (b *Backend) Clear(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// Err returns the pending GL error, if any.
func Err() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%04x", code)
	}
	return nil
}
