package source

import "strings"

// FileID indexes a Reader's files. Re-reading a path yields a new ID.
type FileID uint32

// FileFlags records how a file's bytes were normalized on load.
type FileFlags uint8

const (
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
	FileDecodedUTF16
)

var flagNames = [...]struct {
	flag FileFlags
	name string
}{
	{FileVirtual, "virtual"},
	{FileHadBOM, "bom"},
	{FileNormalizedCRLF, "crlf"},
	{FileDecodedUTF16, "utf16"},
}

// String lists the set flags, e.g. "bom|crlf"; "none" when empty.
func (f FileFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// File is one loaded version of a shader source.
type File struct {
	ID      FileID
	Path    string // root-relative, slash separated
	Content []byte // UTF-8 with LF line endings
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}
