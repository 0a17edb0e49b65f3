package ir

// Statement is one step of a basic block. The set of variants is closed:
// StorageLive, StorageDead, Assign and Assume.
type Statement interface {
	isStatement()
}

// StorageLive allocates storage for a local. Reviving an already-live
// local replaces its storage; pointers into the old storage dangle.
type StorageLive struct {
	Local LocalID
}

func (StorageLive) isStatement() {}

// StorageDead releases a local's storage. Releasing a dead local is UB.
type StorageDead struct {
	Local LocalID
}

func (StorageDead) isStatement() {}

// Assign evaluates Src to a typed value and stores it into Dst. The store
// encodes at the value's type and is never checked against Dst's declared
// type; a mismatch becomes visible only at a later typed load.
type Assign struct {
	Dst PlaceExpr
	Src ValueExpr
}

func (Assign) isStatement() {}

// Assume evaluates Cond as a boolean. The load's validity check applies;
// a false condition marks the path unreachable.
type Assume struct {
	Cond ValueExpr
}

func (Assume) isStatement() {}

// Terminator ends a basic block. Exit is the only variant: control flow
// between blocks is out of scope for this machine.
type Terminator interface {
	isTerminator()
}

// Exit halts the evaluation successfully.
type Exit struct{}

func (Exit) isTerminator() {}

// PlaceExpr designates a memory location. The set of variants is closed:
// LocalID, Deref and GlobalPlace.
type PlaceExpr interface {
	isPlaceExpr()
}

func (LocalID) isPlaceExpr() {}

// Deref is the place behind a pointer value. Pointee is the type the
// place is used at; it need not agree with whatever the pointer's
// producer claimed.
type Deref struct {
	Ptr     ValueExpr
	Pointee Type
}

func (Deref) isPlaceExpr() {}

// GlobalPlace is a typed view of a named global.
type GlobalPlace struct {
	Name GlobalName
	Type Type
}

func (GlobalPlace) isPlaceExpr() {}

// ValueExpr produces a value. The set of variants is closed: Const, Load
// and AddrOf.
type ValueExpr interface {
	isValueExpr()
}

// Const is an immediate of type Type with raw bits. For Bool the bits are
// 0 or 1.
type Const struct {
	Type Type
	Bits uint64
}

func (Const) isValueExpr() {}

// Load reads the place at its declared type. This is the only point where
// the machine checks bytes against a type.
type Load struct {
	Place PlaceExpr
}

func (Load) isValueExpr() {}

// AddrOf takes the address of a place at an arbitrary reference type. No
// check relates Type's pointee to the place's declared type; the
// mismatch, if any, surfaces at the first load through the reference.
type AddrOf struct {
	Place PlaceExpr
	Type  Ref
}

func (AddrOf) isValueExpr() {}
