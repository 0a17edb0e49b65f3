package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ubmach/ubmach"
)

// Dump renders a deterministic human-readable listing of a program.
// Globals and functions are ordered by name (shortest first, then
// lexicographic, which matches the builder's issue order). The listing is
// a debugging aid, not a wire format.
func Dump(p *Program) string {
	var b strings.Builder

	b.WriteString("program\n")
	fmt.Fprintf(&b, "  entry: %s\n", p.Entry)

	for _, name := range sortedKeys(p.Globals) {
		g := p.Globals[name]
		b.WriteByte('\n')
		fmt.Fprintf(&b, "global %s: size %d, align %d\n", name, g.Size(), g.Align)
		b.WriteString("  bytes:")
		for _, c := range g.Bytes {
			b.WriteByte(' ')
			b.WriteString(cellString(c))
		}
		b.WriteByte('\n')

		relocs := slices.Clone(g.Relocs)
		slices.SortFunc(relocs, func(a, b GlobalReloc) int {
			return int(a.Offset) - int(b.Offset)
		})
		for _, r := range relocs {
			fmt.Fprintf(&b, "  reloc +%d -> %s\n", r.Offset, relocTargetString(r.Target))
		}
	}

	for _, name := range sortedKeys(p.Functions) {
		f := p.Functions[name]
		b.WriteByte('\n')
		fmt.Fprintf(&b, "fn %s\n", name)
		if len(f.Locals) > 0 {
			b.WriteString("  locals:\n")
			for _, l := range f.Locals {
				fmt.Fprintf(&b, "    _%d: %s\n", l.ID, l.Type.Name())
			}
		}
		for i, blk := range f.Blocks {
			fmt.Fprintf(&b, "  b%d:\n", i)
			for _, s := range blk.Statements {
				fmt.Fprintf(&b, "    %s\n", StatementString(s))
			}
			fmt.Fprintf(&b, "    %s\n", TerminatorString(blk.Term))
		}
	}

	return b.String()
}

// StatementString renders one statement the way Dump does.
func StatementString(s Statement) string {
	switch s := s.(type) {
	case StorageLive:
		return fmt.Sprintf("storage_live _%d", s.Local)
	case StorageDead:
		return fmt.Sprintf("storage_dead _%d", s.Local)
	case Assign:
		return placeString(s.Dst) + " = " + exprString(s.Src)
	case Assume:
		return "assume " + exprString(s.Cond)
	default:
		return fmt.Sprintf("<unknown statement %T>", s)
	}
}

// TerminatorString renders a block terminator the way Dump does.
func TerminatorString(t Terminator) string {
	switch t.(type) {
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("<unknown terminator %T>", t)
	}
}

func exprString(e ValueExpr) string {
	switch e := e.(type) {
	case Const:
		switch t := e.Type.(type) {
		case Bool:
			if e.Bits == 1 {
				return "const true: bool"
			}
			return "const false: bool"
		case Int:
			return "const " + NewIntVal(t, e.Bits).String()
		default:
			return fmt.Sprintf("const %d: %s", e.Bits, e.Type.Name())
		}
	case Load:
		return "load(" + placeString(e.Place) + ")"
	case AddrOf:
		return "addr_of(" + placeString(e.Place) + ", " + e.Type.Name() + ")"
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func placeString(p PlaceExpr) string {
	switch p := p.(type) {
	case LocalID:
		return fmt.Sprintf("_%d", p)
	case Deref:
		return "deref(" + exprString(p.Ptr) + ", " + p.Pointee.Name() + ")"
	case GlobalPlace:
		return "global(" + string(p.Name) + ", " + p.Type.Name() + ")"
	default:
		return fmt.Sprintf("<unknown place %T>", p)
	}
}

func relocTargetString(t RelocTarget) string {
	switch t := t.(type) {
	case GlobalTarget:
		return "global " + string(t)
	case FunctionTarget:
		return "fn " + string(t)
	default:
		return fmt.Sprintf("<unknown target %T>", t)
	}
}

func cellString(c ubmach.Cell) string {
	switch c.State {
	case ubmach.CellLiteral:
		return fmt.Sprintf("%02x", c.Byte)
	case ubmach.CellPointer:
		return "**"
	default:
		return "??"
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(string(a), string(b))
	})
	return keys
}
