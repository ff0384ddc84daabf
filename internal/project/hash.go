package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash и MergedUnit.Hash)
type Digest [32]byte

// Combine строит хеш программы: H( stage1 || stage2 ... ).
// Порядок стадий должен быть детерминированным (порядок Spec.Stages).
func Combine(stages ...Digest) Digest {
	h := sha256.New()
	for _, d := range stages {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Short returns the first 12 hex digits, enough to tell builds apart.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}
