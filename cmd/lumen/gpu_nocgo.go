//go:build tinygo || !cgo

package main

import (
	"errors"

	"lumen/internal/gpu"
)

const haveGPU = false

var errNoGPU = errors.New("this lumen binary was built without cgo; OpenGL is unavailable")

func openHeadlessGPU() (gpu.Backend, func(), error) {
	return nil, nil, errNoGPU
}
