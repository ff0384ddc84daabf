package main

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show lumen build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("full", false, "include commit, build date and Go version")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	OpenGL    bool   `json:"opengl"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go,omitempty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	info := version.Read()
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		p := versionPayload{Tool: "lumen", Version: info.Version, OpenGL: haveGPU}
		if full {
			p.Commit, p.Modified, p.BuildDate, p.GoVersion = info.Commit, info.Modified, info.BuildDate, info.GoVersion
		}
		return diagfmt.JSON(out, p)
	case "pretty":
		fmt.Fprintf(out, "lumen %s\n", version.Colored())
		if haveGPU {
			fmt.Fprintln(out, "opengl: 4.6 core (glfw)")
		} else {
			fmt.Fprintln(out, "opengl: unavailable (built without cgo)")
		}
		if full {
			commit := cmp.Or(info.Commit, "unknown")
			if info.Modified {
				commit += " (modified)"
			}
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built:  %s\n", cmp.Or(info.BuildDate, "unknown"))
			fmt.Fprintf(out, "go:     %s\n", cmp.Or(info.GoVersion, "unknown"))
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}
