//go:build !tinygo && cgo

package glbackend

import (
	"fmt"
	"runtime"

	"fortio.org/safecast"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowConfig describes the window Open creates.
type WindowConfig struct {
	Width, Height int
	Title         string
	// Hidden creates an invisible window, enough for a GL context.
	Hidden bool
}

// Window owns the GLFW window and its GL context. It must be used from the
// goroutine that called Open.
type Window struct {
	win *glfw.Window
}

// Open creates a window with a current 4.6 core context. The calling
// goroutine is locked to its OS thread.
func Open(cfg WindowConfig) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if cfg.Hidden {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &Window{win: win}, nil
}

// ShouldClose reports whether the user asked to close the window or pressed Escape.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose() || w.win.GetKey(glfw.KeyEscape) == glfw.Press
}

// Frame presents the back buffer, processes events and resizes the viewport.
func (w *Window) Frame() {
	w.win.SwapBuffers()
	glfw.PollEvents()
	fw, fh := w.win.GetFramebufferSize()
	gl.Viewport(0, 0, safecast.MustConv[int32](fw), safecast.MustConv[int32](fh))
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (width, height int) {
	return w.win.GetFramebufferSize()
}

// Time returns seconds since GLFW was initialised.
func (w *Window) Time() float64 {
	return glfw.GetTime()
}

func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}
