package ir

import (
	"encoding/binary"

	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/errors"
)

// AllocInfo is the subset of a memory the Ref validity predicate needs:
// liveness and shape of pointer targets. ubmach.Memory satisfies it.
type AllocInfo interface {
	Live(id ubmach.AllocID) bool
	SizeOf(id ubmach.AllocID) (uint32, bool)
	KindOf(id ubmach.AllocID) (ubmach.AllocKind, bool)
}

// EncodeValue lowers a value to cells and relocations. Integers encode
// little endian, booleans as a single 0x00 or 0x01 byte, references as
// PtrSize pointer-fragment cells carried by one relocation at offset 0.
func EncodeValue(v Value) ([]ubmach.Cell, []ubmach.Reloc) {
	switch v := v.(type) {
	case IntVal:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v.Bits)
		return ubmach.ByteCells(buf[:v.Int.Bits/8]), nil
	case BoolVal:
		b := byte(0)
		if v.B {
			b = 1
		}
		return []ubmach.Cell{ubmach.ByteCell(b)}, nil
	case PtrVal:
		return ubmach.PointerCells(PtrSize), []ubmach.Reloc{{Target: v.Ptr}}
	default:
		return nil, nil
	}
}

// DecodeValue interprets a span of cells and relocations as a value of
// type t. Decoding and validity checking are the same operation: the span
// decodes exactly when it satisfies t's validity invariant, and a failure
// is the invalid_value diagnosis naming t. The span must be exactly
// Layout(t).Size cells with span-relative relocation offsets.
//
// info resolves Ref target liveness; it may be nil when t contains no Ref.
func DecodeValue(t Type, cells []ubmach.Cell, relocs []ubmach.Reloc, info AllocInfo) (Value, *errors.Error) {
	if uint32(len(cells)) != Layout(t).Size {
		return nil, errors.New(errors.PhaseValidate, errors.KindInvalidValue).
			Type(t.Name()).
			Detail("span of %d cells cannot decode type of size %d", len(cells), Layout(t).Size).
			Build()
	}

	switch t := t.(type) {
	case Int:
		return decodeInt(t, cells, relocs)
	case Bool:
		return decodeBool(t, cells, relocs)
	case Ref:
		return decodeRef(t, cells, relocs, info)
	default:
		return nil, errors.New(errors.PhaseValidate, errors.KindInvalidValue).
			Type(t.Name()).
			Detail("unhandled type variant").
			Build()
	}
}

// Check reports whether the span satisfies t's validity invariant. It is
// DecodeValue with the value discarded.
func Check(t Type, cells []ubmach.Cell, relocs []ubmach.Reloc, info AllocInfo) *errors.Error {
	_, err := DecodeValue(t, cells, relocs, info)
	return err
}

// decodeInt requires every cell to be an initialized literal byte. An
// uninitialized cell or a pointer fragment in the span violates validity:
// relocated cells hold an abstract pointer, not data.
func decodeInt(t Int, cells []ubmach.Cell, relocs []ubmach.Reloc) (Value, *errors.Error) {
	if len(relocs) > 0 {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	var bits uint64
	for i, c := range cells {
		if c.State != ubmach.CellLiteral {
			return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
		}
		bits |= uint64(c.Byte) << (8 * i)
	}
	return NewIntVal(t, bits), nil
}

// decodeBool accepts exactly the encodings 0x00 and 0x01.
func decodeBool(t Bool, cells []ubmach.Cell, relocs []ubmach.Reloc) (Value, *errors.Error) {
	if len(relocs) > 0 || cells[0].State != ubmach.CellLiteral || cells[0].Byte > 1 {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	return BoolVal{B: cells[0].Byte == 1}, nil
}

// decodeRef requires the span to be exactly one relocation covering the
// whole window, targeting a live data allocation of non-zero size. The
// check is shallow: the pointee's bytes are not inspected, so a reference
// to ill-typed data is a valid reference until someone loads through it.
func decodeRef(t Ref, cells []ubmach.Cell, relocs []ubmach.Reloc, info AllocInfo) (Value, *errors.Error) {
	if len(relocs) != 1 || relocs[0].Offset != 0 {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	target := relocs[0].Target
	if info == nil || !info.Live(target.Alloc) {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	if kind, ok := info.KindOf(target.Alloc); !ok || kind == ubmach.AllocFunction {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	if size, ok := info.SizeOf(target.Alloc); !ok || size == 0 {
		return nil, errors.InvalidValue(errors.PhaseValidate, nil, t.Name())
	}
	return PtrVal{Ref: t, Ptr: target}, nil
}
