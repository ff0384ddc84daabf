//go:build tinygo || !cgo

package main

import "github.com/spf13/cobra"

func runWindow(_ *cobra.Command, _ runOptions) error {
	return errNoGPU
}
