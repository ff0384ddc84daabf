package uniform

import (
	"fmt"

	"lumen/internal/diag"
)

// Table is the ordered set of uniforms of one linked program. Names are
// unique; iteration follows declaration order.
type Table struct {
	slots []*Slot
	index map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// insert adds a slot for name unless one exists; it returns the slot and
// whether it was created.
func (t *Table) insert(name string, k Kind) (*Slot, bool) {
	if i, ok := t.index[name]; ok {
		return t.slots[i], false
	}
	s := newSlot(name, k)
	t.index[name] = len(t.slots)
	t.slots = append(t.slots, s)
	return s, true
}

// Lookup returns the slot named name.
func (t *Table) Lookup(name string) (*Slot, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.slots[i], true
}

// Slots returns the slots in declaration order. The slice aliases the table.
func (t *Table) Slots() []*Slot {
	if t == nil {
		return nil
	}
	return t.slots
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.slots)
}

// MarkAllDirty schedules every slot for upload.
func (t *Table) MarkAllDirty() {
	for _, s := range t.Slots() {
		s.MarkDirty()
	}
}

// Upload pushes every dirty slot, or every slot when force is set.
func (t *Table) Upload(u Uploader, force bool) {
	for _, s := range t.Slots() {
		s.Upload(u, force)
	}
}

// Mismatch is a uniform whose type changed between two builds.
type Mismatch struct {
	Name string
	Old  Kind
	New  Kind
}

// Err describes the mismatch as a diag.UniformTypeMismatch error.
func (m Mismatch) Err() error {
	return &diag.Error{Code: diag.UniformTypeMismatch, Name: m.Name, Detail: fmt.Sprintf("%s -> %s", m.Old, m.New)}
}

// Transfer is the result of carrying values from one table into another.
type Transfer struct {
	// Carried lists uniforms whose value was copied.
	Carried []string
	// Reset lists uniforms that kept the default because their type changed.
	Reset []Mismatch
	// Missing lists uniforms that no longer exist.
	Missing []string
}

// CarryOver copies every value of from into to where a slot with the same
// signature exists. Copied slots are marked dirty.
func CarryOver(from, to *Table) Transfer {
	var tr Transfer
	for _, old := range from.Slots() {
		next, ok := to.Lookup(old.name)
		switch {
		case !ok:
			tr.Missing = append(tr.Missing, old.name)
		case next.Signature() != old.Signature():
			tr.Reset = append(tr.Reset, Mismatch{Name: old.name, Old: old.Kind(), New: next.Kind()})
		default:
			next.value = old.value
			next.dirty = true
			tr.Carried = append(tr.Carried, old.name)
		}
	}
	return tr
}
