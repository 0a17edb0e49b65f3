package mem

import (
	"slices"
	"strconv"

	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/errors"
	"github.com/ubmach/ubmach/ir"
)

// BasicMemory is the reference ubmach.Memory implementation. Not safe for
// concurrent use; every evaluation owns its store.
type BasicMemory struct {
	allocs map[ubmach.AllocID]*allocation
	next   ubmach.AllocID
}

// allocation keeps contents, pointer table and liveness for one
// allocation. relocs is keyed by absolute cell offset.
type allocation struct {
	cells  []ubmach.Cell
	relocs map[uint32]ubmach.Pointer
	align  uint32
	kind   ubmach.AllocKind
	live   bool
}

var _ ubmach.Memory = (*BasicMemory)(nil)

// New creates an empty store. ID 0 is never issued, so the zero Pointer
// denotes nothing.
func New() *BasicMemory {
	return &BasicMemory{
		allocs: make(map[ubmach.AllocID]*allocation),
		next:   1,
	}
}

// Allocate creates a live allocation of size uninitialized cells.
func (m *BasicMemory) Allocate(size, align uint32, kind ubmach.AllocKind) (ubmach.Pointer, error) {
	if align == 0 || align&(align-1) != 0 {
		return ubmach.Pointer{}, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}

	id := m.next
	m.next++
	m.allocs[id] = &allocation{
		cells: make([]ubmach.Cell, size),
		align: align,
		kind:  kind,
		live:  true,
	}
	return ubmach.Pointer{Alloc: id}, nil
}

// Deallocate marks the allocation dead. The identity and size survive so
// that later liveness queries can tell dead from never-allocated.
func (m *BasicMemory) Deallocate(p ubmach.Pointer) error {
	a, ok := m.allocs[p.Alloc]
	if !ok {
		return errors.OutOfLiveness(errors.PhaseMemory, nil, allocName(p.Alloc)+" was never allocated")
	}
	if p.Offset != 0 {
		return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Detail("deallocate at offset %d, not the allocation base", p.Offset).
			Value(p.Offset).
			Build()
	}
	if !a.live {
		return errors.OutOfLiveness(errors.PhaseMemory, nil, allocName(p.Alloc)+" is already dead")
	}
	a.live = false
	return nil
}

// Write stores cells and relocations at p without any type checking.
func (m *BasicMemory) Write(p ubmach.Pointer, cells []ubmach.Cell, relocs []ubmach.Reloc) error {
	n := uint32(len(cells))
	a, err := m.span(p, n)
	if err != nil {
		return err
	}
	for _, r := range relocs {
		if n < ir.PtrSize || r.Offset > n-ir.PtrSize {
			return errors.OutOfBounds(errors.PhaseMemory, nil, r.Offset, ir.PtrSize, n)
		}
	}

	// Relocations overlapped by the window lose their table entry. Their
	// cells outside the window stay pointer fragments, so a torn pointer
	// can never decode as literal data.
	for off := range a.relocs {
		if off < p.Offset+n && off+ir.PtrSize > p.Offset {
			delete(a.relocs, off)
		}
	}

	copy(a.cells[p.Offset:], cells)

	for _, r := range relocs {
		abs := p.Offset + r.Offset
		if a.relocs == nil {
			a.relocs = make(map[uint32]ubmach.Pointer)
		}
		// The list applies in order: a later relocation tears an earlier
		// overlapping one from the same call, so no cell ever belongs to
		// two pointers.
		for off := range a.relocs {
			if off < abs+ir.PtrSize && off+ir.PtrSize > abs {
				delete(a.relocs, off)
			}
		}
		a.relocs[abs] = r.Target
		for i := abs; i < abs+ir.PtrSize; i++ {
			a.cells[i] = ubmach.Cell{State: ubmach.CellPointer}
		}
	}
	return nil
}

// Read fetches n cells at p together with the relocations fully contained
// in the window. Returned slices are copies; offsets are window-relative.
func (m *BasicMemory) Read(p ubmach.Pointer, n uint32) ([]ubmach.Cell, []ubmach.Reloc, error) {
	cells, relocs, err := m.readSpan(p, n)
	if err != nil {
		return nil, nil, err
	}
	return cells, relocs, nil
}

// ReadTyped fetches the span t occupies at p and decodes it. The returned
// diagnosis names t, the requested type, never the type that produced the
// bytes. Reads do not mutate the store.
func (m *BasicMemory) ReadTyped(p ubmach.Pointer, t ir.Type) (ir.Value, *errors.Error) {
	cells, relocs, err := m.readSpan(p, ir.Layout(t).Size)
	if err != nil {
		return nil, err
	}
	return ir.DecodeValue(t, cells, relocs, m)
}

// Live reports whether id names an allocation that has not been
// deallocated.
func (m *BasicMemory) Live(id ubmach.AllocID) bool {
	a, ok := m.allocs[id]
	return ok && a.live
}

// SizeOf returns the allocation's extent, dead or alive.
func (m *BasicMemory) SizeOf(id ubmach.AllocID) (uint32, bool) {
	a, ok := m.allocs[id]
	if !ok {
		return 0, false
	}
	return uint32(len(a.cells)), true
}

// KindOf returns the allocation's kind, dead or alive.
func (m *BasicMemory) KindOf(id ubmach.AllocID) (ubmach.AllocKind, bool) {
	a, ok := m.allocs[id]
	if !ok {
		return 0, false
	}
	return a.kind, true
}

func (m *BasicMemory) readSpan(p ubmach.Pointer, n uint32) ([]ubmach.Cell, []ubmach.Reloc, *errors.Error) {
	a, err := m.span(p, n)
	if err != nil {
		return nil, nil, err
	}

	cells := slices.Clone(a.cells[p.Offset : p.Offset+n])

	var relocs []ubmach.Reloc
	for off, target := range a.relocs {
		if off >= p.Offset && off+ir.PtrSize <= p.Offset+n {
			relocs = append(relocs, ubmach.Reloc{Offset: off - p.Offset, Target: target})
		}
	}
	slices.SortFunc(relocs, func(x, y ubmach.Reloc) int {
		return int(x.Offset) - int(y.Offset)
	})
	return cells, relocs, nil
}

// span resolves p for an n-cell access: the allocation must exist, be
// live, and contain [p.Offset, p.Offset+n).
func (m *BasicMemory) span(p ubmach.Pointer, n uint32) (*allocation, *errors.Error) {
	a, ok := m.allocs[p.Alloc]
	if !ok {
		return nil, errors.OutOfLiveness(errors.PhaseMemory, nil, allocName(p.Alloc)+" was never allocated")
	}
	if !a.live {
		return nil, errors.OutOfLiveness(errors.PhaseMemory, nil, allocName(p.Alloc)+" is dead")
	}
	size := uint32(len(a.cells))
	if p.Offset > size || n > size-p.Offset {
		return nil, errors.OutOfBounds(errors.PhaseMemory, nil, p.Offset, n, size)
	}
	return a, nil
}

func allocName(id ubmach.AllocID) string {
	return "allocation a" + strconv.FormatUint(uint64(id), 10)
}
