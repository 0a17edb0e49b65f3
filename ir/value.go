package ir

import (
	"fmt"
	"strconv"

	"github.com/ubmach/ubmach"
)

// Value is a typed machine value. The set of variants is closed: IntVal,
// BoolVal and PtrVal. A value remembers the descriptor that produced it,
// so a store encodes at the value's own type regardless of where it lands.
type Value interface {
	// Type returns the descriptor the value was read or constructed at.
	Type() Type

	// String renders the value for diagnostics and dumps.
	String() string

	isValue()
}

// IntVal is an integer value. Bits holds the two's-complement encoding
// normalized to 64 bits: signed values are sign extended, unsigned values
// zero extended.
type IntVal struct {
	Int  Int
	Bits uint64
}

func (v IntVal) isValue() {}

func (v IntVal) Type() Type { return v.Int }

func (v IntVal) String() string {
	if v.Int.Signed {
		return strconv.FormatInt(int64(v.Bits), 10) + ": " + v.Int.Name()
	}
	return strconv.FormatUint(v.Bits, 10) + ": " + v.Int.Name()
}

// Int64 returns the value as a signed integer.
func (v IntVal) Int64() int64 { return int64(v.Bits) }

// Uint64 returns the value as an unsigned integer.
func (v IntVal) Uint64() uint64 { return v.Bits }

// NewIntVal builds an integer value of type t from raw bits, truncating to
// the type's width and then extending back to 64 bits according to the
// type's signedness.
func NewIntVal(t Int, bits uint64) IntVal {
	if t.Bits < 64 {
		mask := uint64(1)<<t.Bits - 1
		bits &= mask
		if t.Signed && bits&(uint64(1)<<(t.Bits-1)) != 0 {
			bits |= ^mask
		}
	}
	return IntVal{Int: t, Bits: bits}
}

// BoolVal is a boolean value.
type BoolVal struct {
	B bool
}

func (v BoolVal) isValue() {}

func (v BoolVal) Type() Type { return Bool8 }

func (v BoolVal) String() string {
	return strconv.FormatBool(v.B) + ": bool"
}

// PtrVal is a reference value: an abstract pointer tagged with the Ref
// descriptor it was produced at.
type PtrVal struct {
	Ref Ref
	Ptr ubmach.Pointer
}

func (v PtrVal) isValue() {}

func (v PtrVal) Type() Type { return v.Ref }

func (v PtrVal) String() string {
	return fmt.Sprintf("ptr(a%d+%d): %s", v.Ptr.Alloc, v.Ptr.Offset, v.Ref.Name())
}
