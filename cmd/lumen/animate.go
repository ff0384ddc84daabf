package main

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"lumen/internal/uniform"
)

// Well-known uniforms the run loop feeds when a program declares them with
// the expected type. Anything else is left to the shader's defaults.
const (
	uniformTime       = "time"
	uniformResolution = "resolution"
	uniformLightPos   = "lightPos"
	uniformIntensity  = "intensity"
	uniformFrame      = "frame"
)

var animatedKinds = map[string]uniform.Kind{
	uniformTime:       uniform.KindFloat,
	uniformResolution: uniform.KindVec2,
	uniformLightPos:   uniform.KindVec3,
	uniformIntensity:  uniform.KindFloat,
	uniformFrame:      uniform.KindInt,
}

// animator drives the well-known uniforms through handles, so it survives
// reloads as long as the declarations keep their types.
type animator struct {
	src     uniform.TableSource
	handles map[string]uniform.Handle
	last    float64
	started bool
	frames  int32
}

func newAnimator(src uniform.TableSource) *animator {
	a := &animator{src: src}
	a.bind()
	return a
}

// bind resolves every well-known uniform against the current table.
func (a *animator) bind() {
	a.handles = make(map[string]uniform.Handle, len(animatedKinds))
	for name, kind := range animatedKinds {
		h, err := uniform.NewHandle(a.src, name)
		if err != nil || h.Kind() != kind {
			continue
		}
		a.handles[name] = h
	}
}

// step advances the animation to now (seconds) for a framebuffer of the
// given size. A handle gone stale after a reload triggers one rebind.
func (a *animator) step(now float64, width, height int) error {
	dt := float32(0)
	if a.started {
		dt = float32(now - a.last)
	}
	a.started = true
	a.last = now
	t := float32(now)

	angle := math32.Mod(t*0.5, 2*math32.Pi)
	light := mgl32.Rotate3DY(angle).Mul3x1(mgl32.Vec3{2, 1, 0})

	values := map[string]uniform.Value{
		uniformResolution: uniform.Vec2(float32(width), float32(height)),
		uniformLightPos:   uniform.Vec3(light.X(), light.Y(), light.Z()),
		uniformIntensity:  uniform.Float(1 + 0.25*math32.Sin(t)),
		uniformFrame:      uniform.Int(a.frames),
	}
	a.frames++

	var errs []error
	rebind := false
	if h, ok := a.handles[uniformTime]; ok {
		if err := h.Add(uniform.Float(dt)); err != nil {
			errs = append(errs, err)
			rebind = rebind || errors.Is(err, uniform.ErrStaleHandle)
		}
	}
	for name, v := range values {
		h, ok := a.handles[name]
		if !ok {
			continue
		}
		if err := h.Set(v); err != nil {
			errs = append(errs, err)
			rebind = rebind || errors.Is(err, uniform.ErrStaleHandle)
		}
	}
	if rebind {
		a.bind()
		return nil
	}
	return errors.Join(errs...)
}

// bound lists the uniforms currently animated.
func (a *animator) bound() []string {
	out := make([]string, 0, len(a.handles))
	for name := range a.handles {
		out = append(out, name)
	}
	return out
}
