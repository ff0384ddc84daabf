package source

import (
	"bytes"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
// Возвращает новый слайс и флаг: были ли замены.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode strips a byte order mark and converts UTF-16 input to UTF-8.
// Content without a BOM is passed through untouched.
func decode(content []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		flags |= FileHadBOM
	case bytes.HasPrefix(content, bomUTF16LE), bytes.HasPrefix(content, bomUTF16BE):
		flags |= FileHadBOM | FileDecodedUTF16
	default:
		return content, 0, nil
	}
	// BOMOverride выбирает декодер по BOM и сам его отрезает
	t := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(t, content)
	if err != nil {
		return nil, 0, err
	}
	return out, flags, nil
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return path.Clean(filepath.ToSlash(p))
}

// Resolve returns the root-relative path of target as referenced from the
// file at from. Targets are relative to the directory of from.
func Resolve(from, target string) string {
	target = filepath.ToSlash(target)
	if strings.HasPrefix(target, "/") {
		return normalizePath(strings.TrimPrefix(target, "/"))
	}
	return normalizePath(path.Join(path.Dir(normalizePath(from)), target))
}
