package mem

import (
	"testing"

	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/errors"
)

func mustAlloc(t *testing.T, m *BasicMemory, size, align uint32, kind ubmach.AllocKind) ubmach.Pointer {
	t.Helper()
	p, err := m.Allocate(size, align, kind)
	if err != nil {
		t.Fatalf("Allocate(%d, %d, %v): %v", size, align, kind, err)
	}
	return p
}

func assertKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %s error", kind)
	}
	e, ok := errors.AsError(err)
	if !ok {
		t.Fatalf("expected a structured error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("Kind = %v, want %v (err: %v)", e.Kind, kind, err)
	}
}

func TestAllocate(t *testing.T) {
	m := New()

	p1 := mustAlloc(t, m, 4, 4, ubmach.AllocLocal)
	p2 := mustAlloc(t, m, 8, 8, ubmach.AllocGlobal)

	if p1.Alloc == 0 || p2.Alloc == 0 {
		t.Error("ID 0 must never be issued")
	}
	if p1.Alloc == p2.Alloc {
		t.Error("allocations must have distinct IDs")
	}
	if p2.Alloc <= p1.Alloc {
		t.Error("IDs must be issued monotonically")
	}
	if p1.Offset != 0 || p2.Offset != 0 {
		t.Error("base pointers must have offset 0")
	}

	cells, relocs, err := m.Read(p1, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 0 {
		t.Errorf("fresh allocation has %d relocs, want 0", len(relocs))
	}
	for i, c := range cells {
		if c.State != ubmach.CellUninit {
			t.Errorf("cell %d state = %v, want uninit", i, c.State)
		}
	}

	if size, ok := m.SizeOf(p1.Alloc); !ok || size != 4 {
		t.Errorf("SizeOf = %d, %v, want 4, true", size, ok)
	}
	if kind, ok := m.KindOf(p2.Alloc); !ok || kind != ubmach.AllocGlobal {
		t.Errorf("KindOf = %v, %v, want global, true", kind, ok)
	}
}

func TestAllocate_BadAlign(t *testing.T) {
	m := New()
	for _, align := range []uint32{0, 3, 6, 12} {
		_, err := m.Allocate(8, align, ubmach.AllocLocal)
		assertKind(t, err, errors.KindOutOfBounds)
	}
}

func TestAllocate_ZeroSize(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 0, 1, ubmach.AllocFunction)
	if !m.Live(p.Alloc) {
		t.Error("zero-size allocation should be live")
	}
	if size, ok := m.SizeOf(p.Alloc); !ok || size != 0 {
		t.Errorf("SizeOf = %d, %v, want 0, true", size, ok)
	}
}

func TestDeallocate(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 2, 1, ubmach.AllocLocal)

	if err := m.Deallocate(p); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	if m.Live(p.Alloc) {
		t.Error("deallocated allocation should not be live")
	}

	// Identity, size and kind survive death.
	if size, ok := m.SizeOf(p.Alloc); !ok || size != 2 {
		t.Errorf("SizeOf after death = %d, %v, want 2, true", size, ok)
	}
	if kind, ok := m.KindOf(p.Alloc); !ok || kind != ubmach.AllocLocal {
		t.Errorf("KindOf after death = %v, %v, want local, true", kind, ok)
	}

	assertKind(t, m.Deallocate(p), errors.KindOutOfLiveness)
}

func TestDeallocate_NotBase(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 8, 1, ubmach.AllocLocal)
	assertKind(t, m.Deallocate(p.Add(1)), errors.KindOutOfBounds)
	if !m.Live(p.Alloc) {
		t.Error("failed deallocate must not kill the allocation")
	}
}

func TestDeallocate_Unknown(t *testing.T) {
	m := New()
	assertKind(t, m.Deallocate(ubmach.Pointer{Alloc: 42}), errors.KindOutOfLiveness)
}

func TestWriteRead_Literal(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 4, 1, ubmach.AllocLocal)

	if err := m.Write(p.Add(1), ubmach.ByteCells([]byte{0xAA, 0xBB}), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cells, relocs, err := m.Read(p, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 0 {
		t.Errorf("unexpected relocs: %+v", relocs)
	}
	wantStates := []ubmach.CellState{
		ubmach.CellUninit, ubmach.CellLiteral, ubmach.CellLiteral, ubmach.CellUninit,
	}
	for i, want := range wantStates {
		if cells[i].State != want {
			t.Errorf("cell %d state = %v, want %v", i, cells[i].State, want)
		}
	}
	if cells[1].Byte != 0xAA || cells[2].Byte != 0xBB {
		t.Errorf("bytes = %#x %#x, want 0xAA 0xBB", cells[1].Byte, cells[2].Byte)
	}
}

func TestWriteRead_Reloc(t *testing.T) {
	m := New()
	target := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 16, 8, ubmach.AllocGlobal)

	reloc := ubmach.Reloc{Offset: 8, Target: target}
	if err := m.Write(p, ubmach.PointerCells(16), []ubmach.Reloc{reloc}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Full window sees the relocation at its absolute position.
	_, relocs, err := m.Read(p, 16)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 1 || relocs[0].Offset != 8 || relocs[0].Target != target {
		t.Errorf("relocs = %+v, want one at offset 8", relocs)
	}

	// A window starting at the relocation reports it window-relative.
	_, relocs, err = m.Read(p.Add(8), 8)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 1 || relocs[0].Offset != 0 {
		t.Errorf("relocs = %+v, want one at offset 0", relocs)
	}
}

func TestRead_RelocStraddlingWindow(t *testing.T) {
	m := New()
	target := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 8, 8, ubmach.AllocLocal)

	if err := m.Write(p, ubmach.PointerCells(8), []ubmach.Reloc{{Target: target}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cells, relocs, err := m.Read(p, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 0 {
		t.Errorf("straddling reloc must not be reported, got %+v", relocs)
	}
	for i, c := range cells {
		if c.State != ubmach.CellPointer {
			t.Errorf("cell %d state = %v, want pointer fragment", i, c.State)
		}
	}
}

func TestWrite_TearsReloc(t *testing.T) {
	m := New()
	target := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 8, 8, ubmach.AllocLocal)

	if err := m.Write(p, ubmach.PointerCells(8), []ubmach.Reloc{{Target: target}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Overwrite the first two bytes of the pointer with literals.
	if err := m.Write(p, ubmach.ByteCells([]byte{1, 2}), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cells, relocs, err := m.Read(p, 8)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 0 {
		t.Errorf("torn reloc must lose its table entry, got %+v", relocs)
	}
	if cells[0].State != ubmach.CellLiteral || cells[1].State != ubmach.CellLiteral {
		t.Error("overwritten cells should be literal")
	}
	for i := 2; i < 8; i++ {
		if cells[i].State != ubmach.CellPointer {
			t.Errorf("cell %d should stay a pointer fragment", i)
		}
	}
}

func TestWrite_ReplacesReloc(t *testing.T) {
	m := New()
	t1 := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	t2 := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 8, 8, ubmach.AllocLocal)

	if err := m.Write(p, ubmach.PointerCells(8), []ubmach.Reloc{{Target: t1}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Write(p, ubmach.PointerCells(8), []ubmach.Reloc{{Target: t2}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, relocs, err := m.Read(p, 8)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(relocs) != 1 || relocs[0].Target != t2 {
		t.Errorf("relocs = %+v, want exactly the second target", relocs)
	}
}

func TestWrite_OverlappingRelocsApplyInOrder(t *testing.T) {
	m := New()
	t1 := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	t2 := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 12, 4, ubmach.AllocLocal)

	// Two pointers over shared cells in one call: the later entry tears
	// the earlier one, exactly as a second Write would.
	relocs := []ubmach.Reloc{{Target: t1}, {Offset: 4, Target: t2}}
	if err := m.Write(p, ubmach.PointerCells(12), relocs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cells, got, err := m.Read(p, 12)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || got[0].Offset != 4 || got[0].Target != t2 {
		t.Errorf("relocs = %+v, want only the later one at offset 4", got)
	}
	for i := 0; i < 4; i++ {
		if cells[i].State != ubmach.CellPointer {
			t.Errorf("cell %d should stay a torn pointer fragment", i)
		}
	}
}

func TestWrite_Bounds(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 4, 1, ubmach.AllocLocal)

	assertKind(t, m.Write(p.Add(2), ubmach.ByteCells([]byte{1, 2, 3}), nil), errors.KindOutOfBounds)
	assertKind(t, m.Write(p.Add(8), ubmach.ByteCells([]byte{1}), nil), errors.KindOutOfBounds)

	// A relocation must fit inside the written span.
	big := mustAlloc(t, m, 16, 8, ubmach.AllocLocal)
	err := m.Write(big, ubmach.PointerCells(8), []ubmach.Reloc{{Offset: 4, Target: p}})
	assertKind(t, err, errors.KindOutOfBounds)
}

func TestWrite_DeadAllocation(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 4, 1, ubmach.AllocLocal)
	if err := m.Deallocate(p); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	assertKind(t, m.Write(p, ubmach.ByteCells([]byte{1}), nil), errors.KindOutOfLiveness)
	_, _, err := m.Read(p, 1)
	assertKind(t, err, errors.KindOutOfLiveness)
}

func TestRead_Bounds(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 4, 1, ubmach.AllocLocal)
	_, _, err := m.Read(p.Add(3), 2)
	assertKind(t, err, errors.KindOutOfBounds)
	_, _, err = m.Read(ubmach.Pointer{Alloc: 99}, 1)
	assertKind(t, err, errors.KindOutOfLiveness)
}

func TestRead_ReturnsCopies(t *testing.T) {
	m := New()
	p := mustAlloc(t, m, 2, 1, ubmach.AllocLocal)
	if err := m.Write(p, ubmach.ByteCells([]byte{5, 6}), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cells, _, err := m.Read(p, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	cells[0] = ubmach.Cell{State: ubmach.CellLiteral, Byte: 0xEE}

	again, _, err := m.Read(p, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if again[0].Byte != 5 {
		t.Error("mutating a read result must not change the store")
	}
}

func TestLive_NeverAllocated(t *testing.T) {
	m := New()
	if m.Live(123) {
		t.Error("unknown ID should not be live")
	}
	if _, ok := m.SizeOf(123); ok {
		t.Error("unknown ID should have no size")
	}
	if _, ok := m.KindOf(123); ok {
		t.Error("unknown ID should have no kind")
	}
}

func TestWrite_RelocNeedsPtrSpan(t *testing.T) {
	m := New()
	target := mustAlloc(t, m, 1, 1, ubmach.AllocLocal)
	p := mustAlloc(t, m, 4, 1, ubmach.AllocLocal)

	// 4-cell span cannot hold an 8-byte pointer.
	err := m.Write(p, ubmach.PointerCells(4), []ubmach.Reloc{{Target: target}})
	assertKind(t, err, errors.KindOutOfBounds)
}
