package diagfmt

import (
	"path"

	"lumen/internal/diag"
	"lumen/internal/source"
)

func formatPath(p string, mode PathMode, reader *source.Reader) string {
	if p == diag.MergedFile {
		return p
	}
	switch mode {
	case PathModeAbsolute:
		if reader != nil {
			return reader.Abs(p)
		}
	case PathModeBasename:
		return path.Base(p)
	}
	return p
}
