// Package gputest provides a scripted in-memory gpu.Backend.
package gputest

import (
	"regexp"
	"strings"

	"lumen/internal/gpu"
	"lumen/internal/uniform"
)

// Upload is one recorded uniform upload.
type Upload struct {
	Program gpu.ProgramID
	Name    string
	Loc     int32
	Value   uniform.Value
}

type shader struct {
	stage gpu.Stage
	src   string
}

type program struct {
	names map[string]int32
	byLoc map[int32]string
}

var uniformRE = regexp.MustCompile(`\buniform\s+\w+\s+(\w+)\s*;`)

// Backend compiles anything unless told otherwise. A uniform is active when
// a linked shader declares it and it is not listed in Inactive.
type Backend struct {
	compileErrors map[string]string
	linkError     string

	// Inactive uniforms get no location, as if the linker optimised them out.
	Inactive map[string]bool

	Bound   gpu.ProgramID
	Uploads []Upload
	Deleted []gpu.ProgramID
	// Compiled records every source handed to CompileShader.
	Compiled []string

	next     uint32
	shaders  map[gpu.ShaderID]shader
	programs map[gpu.ProgramID]*program
}

func New() *Backend {
	return &Backend{
		compileErrors: make(map[string]string),
		Inactive:      make(map[string]bool),
		shaders:       make(map[gpu.ShaderID]shader),
		programs:      make(map[gpu.ProgramID]*program),
	}
}

// FailCompile makes every source containing marker fail with log.
func (b *Backend) FailCompile(marker, log string) {
	b.compileErrors[marker] = log
}

// FailLink makes the next links fail with log; an empty log clears it.
func (b *Backend) FailLink(log string) {
	b.linkError = log
}

// Reset clears every scripted failure.
func (b *Backend) Reset() {
	clear(b.compileErrors)
	b.linkError = ""
}

func (b *Backend) id() uint32 {
	b.next++
	return b.next
}

func (b *Backend) CompileShader(stage gpu.Stage, src string) (gpu.ShaderID, string, bool) {
	b.Compiled = append(b.Compiled, src)
	for marker, log := range b.compileErrors {
		if strings.Contains(src, marker) {
			return 0, log, false
		}
	}
	id := gpu.ShaderID(b.id())
	b.shaders[id] = shader{stage: stage, src: src}
	return id, "", true
}

func (b *Backend) LinkProgram(shaders []gpu.ShaderID) (gpu.ProgramID, string, bool) {
	if b.linkError != "" {
		return 0, b.linkError, false
	}
	p := &program{names: make(map[string]int32), byLoc: make(map[int32]string)}
	var loc int32
	for _, sid := range shaders {
		sh, ok := b.shaders[sid]
		if !ok {
			return 0, "unknown shader object", false
		}
		for _, m := range uniformRE.FindAllStringSubmatch(sh.src, -1) {
			name := m[1]
			if _, seen := p.names[name]; seen || b.Inactive[name] {
				continue
			}
			p.names[name] = loc
			p.byLoc[loc] = name
			loc++
		}
	}
	id := gpu.ProgramID(b.id())
	b.programs[id] = p
	return id, "", true
}

func (b *Backend) UniformLocation(p gpu.ProgramID, name string) (int32, bool) {
	prog, ok := b.programs[p]
	if !ok {
		return 0, false
	}
	loc, ok := prog.names[name]
	return loc, ok
}

func (b *Backend) UseProgram(p gpu.ProgramID) {
	b.Bound = p
}

func (b *Backend) Upload(loc int32, v uniform.Value) {
	name := ""
	if prog, ok := b.programs[b.Bound]; ok {
		name = prog.byLoc[loc]
	}
	b.Uploads = append(b.Uploads, Upload{Program: b.Bound, Name: name, Loc: loc, Value: v})
}

func (b *Backend) DeleteShader(id gpu.ShaderID) {
	delete(b.shaders, id)
}

func (b *Backend) DeleteProgram(id gpu.ProgramID) {
	delete(b.programs, id)
	b.Deleted = append(b.Deleted, id)
}

// Live reports whether p exists and has not been deleted.
func (b *Backend) Live(p gpu.ProgramID) bool {
	_, ok := b.programs[p]
	return ok
}

// LiveShaders counts shader objects that were never deleted.
func (b *Backend) LiveShaders() int {
	return len(b.shaders)
}

// LastUpload returns the most recent upload of name to program p.
func (b *Backend) LastUpload(p gpu.ProgramID, name string) (uniform.Value, bool) {
	for i := len(b.Uploads) - 1; i >= 0; i-- {
		if u := b.Uploads[i]; u.Program == p && u.Name == name {
			return u.Value, true
		}
	}
	return uniform.Value{}, false
}
