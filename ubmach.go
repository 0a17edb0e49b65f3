package ubmach

// AllocID identifies one allocation within a Memory. IDs are assigned
// monotonically and never reused, so a pointer into a dead allocation
// stays distinguishable from every allocation that comes after it.
type AllocID uint64

// Pointer is an abstract pointer: an allocation identity plus a byte
// offset into it. The machine has no numeric addresses.
type Pointer struct {
	Alloc  AllocID
	Offset uint32
}

// Add returns p advanced by n bytes within the same allocation.
func (p Pointer) Add(n uint32) Pointer {
	return Pointer{Alloc: p.Alloc, Offset: p.Offset + n}
}

// CellState describes what one cell of storage holds.
type CellState uint8

const (
	// CellUninit marks a cell that has never been written.
	CellUninit CellState = iota

	// CellLiteral marks a cell holding a concrete data byte.
	CellLiteral

	// CellPointer marks a cell covered by an abstract pointer. The cell
	// carries no literal content; the pointer itself lives in the
	// relocation table of the span the cell belongs to.
	CellPointer
)

var cellStateNames = [...]string{
	CellUninit:  "uninit",
	CellLiteral: "literal",
	CellPointer: "pointer",
}

// String returns a human-readable cell state name.
func (s CellState) String() string {
	if int(s) < len(cellStateNames) {
		return cellStateNames[s]
	}
	return "unknown"
}

// Cell is one byte of storage. Byte is meaningful only when State is
// CellLiteral.
type Cell struct {
	Byte  byte
	State CellState
}

// ByteCell wraps a concrete byte as a literal cell.
func ByteCell(b byte) Cell {
	return Cell{Byte: b, State: CellLiteral}
}

// ByteCells wraps raw data as literal cells.
func ByteCells(data []byte) []Cell {
	cells := make([]Cell, len(data))
	for i, b := range data {
		cells[i] = Cell{Byte: b, State: CellLiteral}
	}
	return cells
}

// UninitCells returns n uninitialized cells.
func UninitCells(n uint32) []Cell {
	return make([]Cell, n)
}

// PointerCells returns n pointer-fragment cells.
func PointerCells(n uint32) []Cell {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i].State = CellPointer
	}
	return cells
}

// Reloc records that the pointer-size run of cells starting at Offset
// encodes Target rather than literal data. Offsets are relative to the
// span being written or read, not to the allocation base.
type Reloc struct {
	Target Pointer
	Offset uint32
}

// AllocKind classifies an allocation by what the machine put there.
type AllocKind uint8

const (
	// AllocLocal backs a function-local variable between StorageLive and
	// StorageDead.
	AllocLocal AllocKind = iota

	// AllocGlobal backs a global declared on the program.
	AllocGlobal

	// AllocFunction is a zero-size allocation standing in for a function
	// so that pointers to functions have a target identity. It holds no
	// data and never admits a typed read.
	AllocFunction
)

var allocKindNames = [...]string{
	AllocLocal:    "local",
	AllocGlobal:   "global",
	AllocFunction: "function",
}

// String returns a human-readable allocation kind name.
func (k AllocKind) String() string {
	if int(k) < len(allocKindNames) {
		return allocKindNames[k]
	}
	return "unknown"
}

// Memory is the byte-addressable store an evaluation runs against.
//
// The store is type-erased. Write succeeds whenever the target allocation
// is live and the span is in bounds, regardless of what the cells held
// before or which type the bytes came from. All type checking happens at
// typed reads layered on top of Read.
type Memory interface {
	// Allocate creates a live allocation of size uninitialized cells and
	// returns its base pointer. align must be a power of two.
	Allocate(size, align uint32, kind AllocKind) (Pointer, error)

	// Deallocate marks the allocation designated by p dead. p must be the
	// base pointer of a live allocation. The allocation's identity is
	// retained so later liveness queries can tell dead from unknown.
	Deallocate(p Pointer) error

	// Write stores cells starting at p. relocs carry the abstract
	// pointers embedded in the span, with offsets relative to p, and
	// apply in list order: a relocation tears any overlapping earlier
	// one, from a prior Write or from the same list. Cells of a torn
	// relocation lose their table entry but remain pointer fragments.
	Write(p Pointer, cells []Cell, relocs []Reloc) error

	// Read fetches n cells starting at p, together with the relocations
	// lying fully inside the window. Returned offsets are relative to p.
	Read(p Pointer, n uint32) ([]Cell, []Reloc, error)

	// Live reports whether id names an allocation that exists and has
	// not been deallocated.
	Live(id AllocID) bool

	// SizeOf returns the size in bytes of the named allocation, dead or
	// alive. The second result is false when id was never allocated.
	SizeOf(id AllocID) (uint32, bool)

	// KindOf returns the kind of the named allocation, dead or alive.
	// The second result is false when id was never allocated.
	KindOf(id AllocID) (AllocKind, bool)
}
