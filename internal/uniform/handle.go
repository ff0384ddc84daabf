package uniform

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned when a handle's uniform no longer exists with
// the handle's type, typically after a reload changed the shader.
var ErrStaleHandle = errors.New("uniform handle does not match the current program")

// TableSource is whatever currently owns the table a handle resolves
// against, usually a program that may swap tables on reload.
type TableSource interface {
	Table() *Table
}

// Handle refers to a uniform by name and type. It is resolved on every
// access, so it stays valid across reloads as long as the uniform keeps its
// signature.
type Handle struct {
	name string
	kind Kind
	src  TableSource
}

// NewHandle resolves name in src's current table.
func NewHandle(src TableSource, name string) (Handle, error) {
	s, ok := src.Table().Lookup(name)
	if !ok {
		return Handle{}, fmt.Errorf("no uniform named %q", name)
	}
	return Handle{name: name, kind: s.Kind(), src: src}, nil
}

func (h Handle) Name() string { return h.name }
func (h Handle) Kind() Kind   { return h.kind }

func (h Handle) slot() (*Slot, error) {
	if h.src == nil {
		return nil, ErrStaleHandle
	}
	s, ok := h.src.Table().Lookup(h.name)
	if !ok || s.Kind() != h.kind {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, Signature(h.name, h.kind))
	}
	return s, nil
}

// Get returns the current value.
func (h Handle) Get() (Value, error) {
	s, err := h.slot()
	if err != nil {
		return Value{}, err
	}
	return s.Value(), nil
}

// Set stores v and marks the uniform dirty.
func (h Handle) Set(v Value) error {
	s, err := h.slot()
	if err != nil {
		return err
	}
	return s.Set(v)
}

// Add adds delta to the current value, e.g. to accumulate time.
func (h Handle) Add(delta Value) error {
	s, err := h.slot()
	if err != nil {
		return err
	}
	sum, err := s.Value().Add(delta)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", h.name, err)
	}
	return s.Set(sum)
}
