package build

import (
	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/ir"
)

// Free constructors for statement operands, mirroring how programs read
// in listings: Assign(x, ConstInt(ir.U8, 2)), Assume(Load(Deref(...))).

// ConstInt is an integer immediate of type t.
func ConstInt(t ir.Int, v uint64) ir.ValueExpr {
	return ir.Const{Type: t, Bits: v}
}

// ConstBool is a boolean immediate.
func ConstBool(b bool) ir.ValueExpr {
	var bits uint64
	if b {
		bits = 1
	}
	return ir.Const{Type: ir.Bool8, Bits: bits}
}

// Load reads a place at its declared type.
func Load(p ir.PlaceExpr) ir.ValueExpr {
	return ir.Load{Place: p}
}

// Deref makes the place behind a pointer value, used at type pointee.
func Deref(ptr ir.ValueExpr, pointee ir.Type) ir.PlaceExpr {
	return ir.Deref{Ptr: ptr, Pointee: pointee}
}

// AddrOf takes the address of a place at reference type rt. The pointee
// type rt claims is not checked against the place.
func AddrOf(p ir.PlaceExpr, rt ir.Ref) ir.ValueExpr {
	return ir.AddrOf{Place: p, Type: rt}
}

// GlobalInt returns a zero-initialized global image shaped like the
// integer t. Declare it with ProgramBuilder.DeclareGlobal.
func GlobalInt(t ir.Int) ir.Global {
	li := ir.Layout(t)
	return ir.Global{
		Bytes: ubmach.ByteCells(make([]byte, li.Size)),
		Align: li.Align,
	}
}

// GlobalPtr returns a zero-initialized global image shaped like a pointer
// to pointee. The image carries no relocation; add one to turn the zero
// bytes into a real pointer.
func GlobalPtr(pointee ir.Type) ir.Global {
	li := ir.Layout(ir.RefTo(pointee))
	return ir.Global{
		Bytes: ubmach.ByteCells(make([]byte, li.Size)),
		Align: li.Align,
	}
}
