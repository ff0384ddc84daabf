package fuzztests

import (
	"testing"

	"lumen/internal/project"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

// shaderSeeds covers the directive forms the preprocessor treats specially.
var shaderSeeds = []string{
	"#version 460\nvoid main() {}\n",
	"#include \"lib.glsl\"\nuniform float time;\n",
	"  #  include   \"lib.glsl\"\n",
	"// #include \"lib.glsl\"\n",
	"/* <ignore> */\n#include \"lib.glsl\"\n/* </ignore> */\n",
	"/* <ignore> */\n/* <ignore> */\nuniform vec3 a;\n/* </ignore> */\n",
	"/* <ignore> */ never closed\n",
	"uniform vec3 lightPos; uniform float x;\r\nuniform mat4 bad;\n",
	"\xef\xbb\xbfuniform int n;\n",
	"#include \"self.glsl\"\n",
	"#include \"../outside.glsl\"\n",
	"#include \"/lib.glsl\"\n",
	"",
}

// logSeeds are compiler log shapes diag.Map understands, plus noise.
var logSeeds = []string{
	"0(3) : error C1008: undefined variable \"foo\"\n",
	"0:2(10): error: syntax error, unexpected IDENTIFIER\n",
	"0(999) : error C0000: past the end\n",
	"0(0) : error C0000: line zero\n",
	"warning: nothing to see\n0(1) : warning C7050: unused\n",
	"",
}

func addShaderSeeds(f *testing.F) {
	for _, s := range shaderSeeds {
		f.Add([]byte(s))
	}
	for _, src := range project.StarterFiles() {
		if len(src) <= maxSeedBytes {
			f.Add([]byte(src))
		}
	}
}
