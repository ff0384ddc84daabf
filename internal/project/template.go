package project

import "fmt"

// DefaultManifest returns the manifest written by `lumen init`.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# lumen project manifest
[project]
name = "%s"
root = "shaders"

[[program]]
name = "main"
vertex = "main.vert"
fragment = "main.frag"

[watch]
interval = "200ms"
snapshot = true

[window]
width = 1280
height = 720
`, name)
}

// StarterFiles maps root-relative paths to the shader sources `lumen init` creates.
func StarterFiles() map[string]string {
	return map[string]string{
		"main.vert": `#version 460 core
// fullscreen triangle, no vertex buffers
out vec2 vUV;

void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`,
		"main.frag": `#version 460 core
#include "lib/lighting.glsl"

in vec2 vUV;
out vec4 fragColor;

uniform float time;
uniform vec2 resolution;

void main() {
    vec3 base = 0.5 + 0.5 * cos(time + vUV.xyx + vec3(0.0, 2.0, 4.0));
    fragColor = vec4(shade(base, vec3(vUV, 0.0)), 1.0);
}
`,
		"lib/lighting.glsl": `uniform vec3 lightPos;
uniform float intensity;

vec3 shade(vec3 albedo, vec3 p) {
    float d = length(lightPos - p);
    return albedo * intensity / (1.0 + d * d);
}
`,
	}
}
