//go:build !tinygo && cgo

package main

import (
	"lumen/internal/gpu"
	"lumen/internal/gpu/glbackend"
)

const haveGPU = true

// openHeadlessGPU creates an invisible window so programs can be compiled
// by the real driver. The caller must stay on the current goroutine until
// the returned close function runs.
func openHeadlessGPU() (gpu.Backend, func(), error) {
	win, err := glbackend.Open(glbackend.WindowConfig{Width: 64, Height: 64, Title: "lumen", Hidden: true})
	if err != nil {
		return nil, nil, err
	}
	return glbackend.New(), win.Close, nil
}
