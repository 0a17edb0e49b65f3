package ir

import "fmt"

// Machine pointer shape. References occupy PtrSize bytes aligned to
// PtrAlign no matter what they point at.
const (
	PtrSize  uint32 = 8
	PtrAlign uint32 = 8
)

// Info holds layout information for a type
type Info struct {
	Size  uint32
	Align uint32
}

// Layout returns the size and alignment of t. Integers are naturally
// aligned, bool is one byte, references have the machine pointer shape.
func Layout(t Type) Info {
	switch t := t.(type) {
	case Int:
		size := t.Bits / 8
		return Info{Size: size, Align: size}
	case Bool:
		return Info{Size: 1, Align: 1}
	case Ref:
		return Info{Size: PtrSize, Align: PtrAlign}
	default:
		panic(fmt.Sprintf("unhandled type variant %T", t))
	}
}

// AlignTo rounds offset up to the next multiple of align.
// align must be a power of 2.
func AlignTo(offset, align uint32) uint32 {
	return (offset + align - 1) &^ (align - 1)
}
