// Package glbackend implements gpu.Backend on OpenGL 4.6 core through
// go-gl, and opens the window/context with GLFW. It needs cgo; without it
// the package is empty and callers fall back to gputest.
package glbackend
