// Package snapshot persists uniform values between runs so a restarted
// program resumes where the previous one stopped.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"lumen/internal/uniform"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Store keeps one payload per program name on disk. Safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the stored state of one program's uniforms.
type Payload struct {
	Schema   uint16    `msgpack:"schema"`
	Program  string    `msgpack:"program"`
	SavedAt  time.Time `msgpack:"saved_at"`
	Uniforms []Entry   `msgpack:"uniforms"`
}

// Entry is one uniform value; exactly one component slice is set.
type Entry struct {
	Name    string    `msgpack:"name"`
	Type    string    `msgpack:"type"`
	Bools   []bool    `msgpack:"b,omitempty"`
	Ints    []int32   `msgpack:"i,omitempty"`
	Uints   []uint32  `msgpack:"u,omitempty"`
	Floats  []float32 `msgpack:"f,omitempty"`
	Doubles []float64 `msgpack:"d,omitempty"`
}

// Open returns a store rooted at dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// OpenCache opens the store under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func OpenCache(app string) (*Store, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app, "uniforms"))
}

func (s *Store) pathFor(program string) string {
	sum := sha256.Sum256([]byte(program))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".mp")
}

// Capture records every value of t.
func Capture(program string, t *uniform.Table) *Payload {
	p := &Payload{Schema: schemaVersion, Program: program, SavedAt: time.Now()}
	for _, s := range t.Slots() {
		v := s.Value()
		e := Entry{Name: s.Name(), Type: s.Kind().String()}
		switch s.Kind().Elem() {
		case uniform.ElemBool:
			e.Bools = append([]bool(nil), v.Bools()...)
		case uniform.ElemInt:
			e.Ints = append([]int32(nil), v.Ints()...)
		case uniform.ElemUint:
			e.Uints = append([]uint32(nil), v.Uints()...)
		case uniform.ElemFloat:
			e.Floats = append([]float32(nil), v.Floats()...)
		case uniform.ElemDouble:
			e.Doubles = append([]float64(nil), v.Doubles()...)
		}
		p.Uniforms = append(p.Uniforms, e)
	}
	return p
}

// Value rebuilds the uniform value, checking it against the stored type.
func (e Entry) Value() (uniform.Value, error) {
	k, ok := uniform.ParseKind(e.Type)
	if !ok {
		return uniform.Value{}, fmt.Errorf("snapshot: unknown type %q for %q", e.Type, e.Name)
	}
	var v uniform.Value
	var err error
	switch k.Elem() {
	case uniform.ElemBool:
		v, err = uniform.FromBools(e.Bools...)
	case uniform.ElemInt:
		v, err = uniform.FromInts(e.Ints...)
	case uniform.ElemUint:
		v, err = uniform.FromUints(e.Uints...)
	case uniform.ElemFloat:
		v, err = uniform.FromFloats(e.Floats...)
	case uniform.ElemDouble:
		v, err = uniform.FromDoubles(e.Doubles...)
	}
	if err != nil {
		return uniform.Value{}, fmt.Errorf("snapshot: %q: %w", e.Name, err)
	}
	if v.Kind() != k {
		return uniform.Value{}, fmt.Errorf("snapshot: %q stored as %s but holds %s", e.Name, k, v.Kind())
	}
	return v, nil
}

// Apply restores stored values into t wherever name and type still match,
// following the same rule as a reload. Restored slots are marked dirty.
func (p *Payload) Apply(t *uniform.Table) uniform.Transfer {
	var tr uniform.Transfer
	for _, e := range p.Uniforms {
		s, ok := t.Lookup(e.Name)
		if !ok {
			tr.Missing = append(tr.Missing, e.Name)
			continue
		}
		v, err := e.Value()
		if err != nil || uniform.Signature(e.Name, v.Kind()) != s.Signature() {
			old, _ := uniform.ParseKind(e.Type)
			tr.Reset = append(tr.Reset, uniform.Mismatch{Name: e.Name, Old: old, New: s.Kind()})
			continue
		}
		_ = s.Set(v) //nolint:errcheck // kinds checked above
		tr.Carried = append(tr.Carried, e.Name)
	}
	return tr
}

// Put writes the payload for its program, replacing any previous one atomically.
func (s *Store) Put(p *Payload) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(p.Program)
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	if err := msgpack.NewEncoder(f).Encode(p); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, path)
}

// Get reads the payload of program. A missing payload is not an error.
func (s *Store) Get(program string) (*Payload, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(program))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, fmt.Errorf("snapshot %s: %w", program, err)
	}
	if p.Schema != schemaVersion || p.Program != program {
		// чужая или устаревшая запись
		return nil, false, nil
	}
	return &p, true, nil
}

// Drop deletes the payload of program.
func (s *Store) Drop(program string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.pathFor(program)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
