package ir

import "strconv"

// Type is a machine type descriptor. The set of variants is closed: Int,
// Bool and Ref. Consumers dispatch on the concrete variant with a type
// switch.
//
// Descriptors are small comparable values; two descriptors are the same
// type exactly when they are ==.
type Type interface {
	// Name returns the canonical rendering: u8, i32, bool, &T, &mut T.
	Name() string

	isType()
}

// Int describes a fixed-width two's-complement integer. Bits is one of
// 8, 16, 32 or 64.
type Int struct {
	Bits   uint32
	Signed bool
}

func (t Int) isType() {}

// Name returns u8, i8, u16, ... depending on width and signedness.
func (t Int) Name() string {
	prefix := "u"
	if t.Signed {
		prefix = "i"
	}
	return prefix + strconv.FormatUint(uint64(t.Bits), 10)
}

// Bool describes the one-byte boolean. Only the encodings 0x00 and 0x01
// are valid.
type Bool struct{}

func (t Bool) isType() {}

func (t Bool) Name() string { return "bool" }

// Ref describes a reference to Pointee. Validity of a Ref value is
// shallow: the target allocation must be live data storage, but the
// pointee's bytes are never inspected.
type Ref struct {
	Pointee Type
	Mut     bool
}

func (t Ref) isType() {}

func (t Ref) Name() string {
	if t.Mut {
		return "&mut " + t.Pointee.Name()
	}
	return "&" + t.Pointee.Name()
}

// Predeclared integer descriptors.
var (
	U8  = Int{Bits: 8}
	I8  = Int{Bits: 8, Signed: true}
	U16 = Int{Bits: 16}
	I16 = Int{Bits: 16, Signed: true}
	U32 = Int{Bits: 32}
	I32 = Int{Bits: 32, Signed: true}
	U64 = Int{Bits: 64}
	I64 = Int{Bits: 64, Signed: true}
)

// Bool8 is the predeclared one-byte boolean descriptor.
var Bool8 = Bool{}

// Complete reports whether t is a fully specified descriptor, with a
// pointee behind every reference. An incomplete descriptor cannot be
// laid out or named.
func Complete(t Type) bool {
	for {
		switch tt := t.(type) {
		case nil:
			return false
		case Ref:
			t = tt.Pointee
		default:
			return true
		}
	}
}

// RefTo returns the shared-reference descriptor for pointee t.
func RefTo(t Type) Ref {
	return Ref{Pointee: t}
}

// MutRefTo returns the mutable-reference descriptor for pointee t.
func MutRefTo(t Type) Ref {
	return Ref{Pointee: t, Mut: true}
}
