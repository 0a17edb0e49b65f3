package ir

import (
	"fmt"

	"github.com/ubmach/ubmach"
)

// FunctionName identifies a function within a program. The builder issues
// f0, f1, ... in declaration order.
type FunctionName string

// GlobalName identifies a global within a program. The builder issues
// g0, g1, ... in declaration order.
type GlobalName string

// Program is an immutable machine program: name-keyed functions and
// globals plus the entry point. Nothing in a program is an address;
// globals reference each other through named relocation targets that the
// evaluator resolves at startup.
type Program struct {
	Functions map[FunctionName]*Function
	Globals   map[GlobalName]*Global
	Entry     FunctionName
}

// Function is a sequence of basic blocks over a set of declared locals.
// Execution starts at block 0.
type Function struct {
	Name   FunctionName
	Locals []Local
	Blocks []BasicBlock
}

// LocalType returns the declared type of a local.
func (f *Function) LocalType(id LocalID) (Type, error) {
	if int(id) >= len(f.Locals) {
		return nil, fmt.Errorf("function %s has no local _%d", f.Name, id)
	}
	t := f.Locals[id].Type
	if !Complete(t) {
		return nil, fmt.Errorf("function %s local _%d has no complete type", f.Name, id)
	}
	return t, nil
}

// Local is a declared function-local variable. Declaration reserves the
// slot only; storage comes and goes with StorageLive and StorageDead.
type Local struct {
	Type Type
	ID   LocalID
}

// LocalID indexes a function's locals. A LocalID is also a PlaceExpr:
// the local itself is a place.
type LocalID uint32

// BasicBlock is a straight-line statement sequence ending in a terminator.
type BasicBlock struct {
	Statements []Statement
	Term       Terminator
}

// Global is the typed-erased initial image of a global: cells, alignment,
// and the named pointers embedded in the cells. Sizes and alignments come
// from the builder; the evaluator materializes the image into a fresh
// allocation per run.
type Global struct {
	Bytes  []ubmach.Cell
	Relocs []GlobalReloc
	Align  uint32
}

// Size returns the global's extent in bytes.
func (g *Global) Size() uint32 {
	return uint32(len(g.Bytes))
}

// GlobalReloc embeds a named pointer at Offset in a global's image. The
// covered cells must be pointer fragments.
type GlobalReloc struct {
	Target RelocTarget
	Offset uint32
}

// RelocTarget names what a global relocation points at. The set of
// variants is closed: GlobalTarget and FunctionTarget.
type RelocTarget interface {
	isRelocTarget()
}

// GlobalTarget points at the base of another global (or the same one).
type GlobalTarget GlobalName

func (GlobalTarget) isRelocTarget() {}

// FunctionTarget points at a function. The evaluator gives every function
// a zero-size allocation, so such a pointer is storable and comparable but
// never admits a typed load through it.
type FunctionTarget FunctionName

func (FunctionTarget) isRelocTarget() {}

// PlaceType returns the declared type of a place within fn: the local's
// declared type, a deref's pointee, or a global view's type. The returned
// error marks a malformed program, not UB.
func PlaceType(p PlaceExpr, fn *Function) (Type, error) {
	switch p := p.(type) {
	case LocalID:
		return fn.LocalType(p)
	case Deref:
		if !Complete(p.Pointee) {
			return nil, fmt.Errorf("deref place has no complete pointee type")
		}
		return p.Pointee, nil
	case GlobalPlace:
		if !Complete(p.Type) {
			return nil, fmt.Errorf("global place %q has no complete type", p.Name)
		}
		return p.Type, nil
	default:
		return nil, fmt.Errorf("unhandled place variant %T", p)
	}
}
