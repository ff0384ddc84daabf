package uniform

import "fmt"

// Location is a uniform's binding in a linked program. Uniforms the linker
// optimised out have no valid location.
type Location struct {
	Index int32
	Valid bool
}

// Uploader pushes one value to the currently bound program.
type Uploader interface {
	Upload(loc int32, v Value)
}

// Slot holds one uniform's current value and whether it still has to be
// uploaded.
type Slot struct {
	name  string
	value Value
	dirty bool
	loc   Location
}

func newSlot(name string, k Kind) *Slot {
	return &Slot{name: name, value: Zero(k), dirty: true}
}

func (s *Slot) Name() string       { return s.name }
func (s *Slot) Kind() Kind         { return s.value.kind }
func (s *Slot) Value() Value       { return s.value }
func (s *Slot) Dirty() bool        { return s.dirty }
func (s *Slot) Location() Location { return s.loc }

// Signature is "name: type"; two slots with equal signatures can share a value.
func (s *Slot) Signature() string {
	return Signature(s.name, s.value.kind)
}

// Signature formats the identity used to match uniforms across rebuilds.
func Signature(name string, k Kind) string {
	return name + ": " + k.String()
}

// Set stores v and marks the slot dirty. v must have the slot's kind.
func (s *Slot) Set(v Value) error {
	if v.kind != s.value.kind {
		return fmt.Errorf("uniform %q is %s, cannot set %s", s.name, s.value.kind, v.kind)
	}
	s.value = v
	s.dirty = true
	return nil
}

// MarkDirty forces the next Upload to push the value.
func (s *Slot) MarkDirty() { s.dirty = true }

// Upload pushes the value when it is dirty or force is set, then clears the
// dirty flag. Slots without a valid location only clear the flag.
func (s *Slot) Upload(u Uploader, force bool) {
	if !s.dirty && !force {
		return
	}
	if s.loc.Valid {
		u.Upload(s.loc.Index, s.value)
	}
	s.dirty = false
}
