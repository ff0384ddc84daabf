// Package version reports what build of lumen is running.
package version

import (
	"cmp"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// Set with -ldflags "-X lumen/internal/version.Version=...". Empty commit
// and date fall back to the VCS stamp the Go toolchain embeds.
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var partColors = [3]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Info is the resolved build fingerprint.
type Info struct {
	Version   string
	Commit    string
	Modified  bool
	BuildDate string
	GoVersion string
}

// Read merges the linker-set variables with debug.ReadBuildInfo.
func Read() Info {
	info := Info{
		Version:   cmp.Or(strings.TrimSpace(Version), "dev"),
		Commit:    strings.TrimSpace(GitCommit),
		BuildDate: strings.TrimSpace(BuildDate),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = cmp.Or(info.Commit, s.Value)
		case "vcs.time":
			info.BuildDate = cmp.Or(info.BuildDate, s.Value)
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Colored returns Version with major, minor and patch in separate colors.
// Anything after the patch number (e.g. "-dev") is left plain.
func Colored() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	patch, suffix := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, suffix = patch[:i], patch[i:]
	}
	parts[2] = patch
	for i := range parts {
		parts[i] = partColors[i].Sprint(parts[i])
	}
	return strings.Join(parts, ".") + suffix
}
