package source

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fortio.org/safecast"

	"lumen/internal/diag"
)

// Reader loads shader sources relative to a root directory. Every Read goes
// to disk and stores a new version of the file, so a reload always sees the
// current contents while earlier versions stay addressable by FileID.
type Reader struct {
	root  string
	files []File
	index map[string]FileID // path -> latest id
}

// NewReader creates a Reader rooted at root.
func NewReader(root string) *Reader {
	return &Reader{
		root:  root,
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Root returns the directory every path is resolved against.
func (r *Reader) Root() string {
	return r.root
}

// Abs returns the on-disk location of the root-relative path p.
func (r *Reader) Abs(p string) string {
	return filepath.Join(r.root, filepath.FromSlash(normalizePath(p)))
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (r *Reader) Add(p string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(p)

	lenFiles, err := safecast.Conv[uint32](len(r.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	r.files = append(r.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	r.index[normalizedPath] = id
	return id
}

// ErrOutsideRoot is wrapped by the NotFound error for a path that climbs
// above the root.
var ErrOutsideRoot = errors.New("path escapes the source root")

// Read loads the root-relative path p from disk, strips a BOM, decodes UTF-16
// and normalizes CRLF. A missing file, or a path outside the root, yields a diag.NotFound error.
func (r *Reader) Read(p string) (*File, error) {
	p = normalizePath(p)
	if !fs.ValidPath(p) {
		return nil, &diag.Error{Code: diag.NotFound, Path: p, Err: ErrOutsideRoot}
	}
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(r.Abs(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &diag.Error{Code: diag.NotFound, Path: p, Err: err}
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	content, flags, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return r.Get(r.Add(p, content, flags)), nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (r *Reader) AddVirtual(name string, content []byte) FileID {
	return r.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (r *Reader) Get(id FileID) *File {
	return &r.files[id]
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (r *Reader) GetLatest(p string) (FileID, bool) {
	id, ok := r.index[normalizePath(p)]
	return id, ok
}

// GetByPath возвращает последнюю версию *File по пути, если она была загружена.
func (r *Reader) GetByPath(p string) (*File, bool) {
	if id, ok := r.index[normalizePath(p)]; ok {
		return &r.files[id], true
	}
	return nil, false
}

// Lines splits the content into lines. A trailing newline does not start an
// extra empty line, and a trailing \r is dropped from every line.
func (f *File) Lines() []string {
	n := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		lineNum, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("line number overflow: %w", err))
		}
		out = append(out, f.GetLine(lineNum))
	}
	return out
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}

	return string(f.Content[start:end])
}
