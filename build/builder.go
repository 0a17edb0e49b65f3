package build

import (
	"fmt"
	"slices"

	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/errors"
	"github.com/ubmach/ubmach/ir"
)

// ProgramBuilder accumulates functions and globals and freezes them into
// an ir.Program. The zero value is not usable; call NewProgramBuilder.
type ProgramBuilder struct {
	functions  map[ir.FunctionName]*ir.Function
	globals    map[ir.GlobalName]*ir.Global
	open       map[ir.FunctionName]*FunctionBuilder
	err        *errors.Error
	nextFn     uint32
	nextGlobal uint32
	finished   bool
}

// NewProgramBuilder creates an empty builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{
		functions: make(map[ir.FunctionName]*ir.Function),
		globals:   make(map[ir.GlobalName]*ir.Global),
		open:      make(map[ir.FunctionName]*FunctionBuilder),
	}
}

// Err returns the first misuse recorded on the builder, if any.
func (pb *ProgramBuilder) Err() error {
	if pb.err != nil {
		return pb.err
	}
	return nil
}

func (pb *ProgramBuilder) fail(e *errors.Error) {
	if pb.err == nil {
		pb.err = e
	}
}

// DeclareFunction opens a new function. The returned builder must be
// passed to FinishFunction before the function can serve as an entry
// point.
func (pb *ProgramBuilder) DeclareFunction() *FunctionBuilder {
	fb := &FunctionBuilder{pb: pb}
	if pb.finished {
		fb.err = errors.BuilderMisuse("declare function on a finished program")
		pb.fail(fb.err)
		return fb
	}
	fb.name = ir.FunctionName(fmt.Sprintf("f%d", pb.nextFn))
	pb.nextFn++
	pb.open[fb.name] = fb
	return fb
}

// FinishFunction freezes fb into the program and returns its name.
func (pb *ProgramBuilder) FinishFunction(fb *FunctionBuilder) (ir.FunctionName, error) {
	var e *errors.Error
	switch {
	case fb == nil:
		e = errors.BuilderMisuse("finish of a nil function builder")
	case fb.pb != pb:
		e = errors.BuilderMisuse("finish of a function builder from another program")
	case fb.err != nil:
		e = fb.err
	case fb.finished:
		e = errors.BuilderMisuse("function %s already finished", fb.name)
	case !fb.terminated:
		e = errors.BuilderMisuse("function %s has an unterminated block", fb.name)
	}
	if e != nil {
		pb.fail(e)
		return "", e
	}

	fb.finished = true
	delete(pb.open, fb.name)
	pb.functions[fb.name] = &ir.Function{
		Name:   fb.name,
		Locals: slices.Clone(fb.locals),
		Blocks: slices.Clone(fb.blocks),
	}
	return fb.name, nil
}

// FinishProgram seals the program with the given entry point. After a
// successful finish the builder is spent; any further use is misuse.
func (pb *ProgramBuilder) FinishProgram(entry ir.FunctionName) (*ir.Program, error) {
	if pb.err != nil {
		return nil, pb.err
	}
	if pb.finished {
		e := errors.BuilderMisuse("program already finished")
		pb.fail(e)
		return nil, e
	}
	if _, ok := pb.functions[entry]; !ok {
		var e *errors.Error
		if _, declared := pb.open[entry]; declared {
			e = errors.BuilderMisuse("entry function %s was declared but never finished", entry)
		} else {
			e = errors.BuilderMisuse("unknown entry function %q", entry)
		}
		pb.fail(e)
		return nil, e
	}

	pb.finished = true
	p := &ir.Program{
		Functions: make(map[ir.FunctionName]*ir.Function, len(pb.functions)),
		Globals:   make(map[ir.GlobalName]*ir.Global, len(pb.globals)),
		Entry:     entry,
	}
	for name, fn := range pb.functions {
		p.Functions[name] = fn
	}
	for name, g := range pb.globals {
		p.Globals[name] = g
	}
	return p, nil
}

// DeclareGlobalZeroInitialized declares a global sized and aligned for t
// with every byte written to zero, and returns a typed place for it.
// Zero-filled bytes satisfy every integer validity invariant, so reads of
// the fresh global never trip over uninitialized cells.
func (pb *ProgramBuilder) DeclareGlobalZeroInitialized(t ir.Type) ir.PlaceExpr {
	if !ir.Complete(t) {
		pb.fail(errors.BuilderMisuse("declare global without a complete type"))
		return ir.GlobalPlace{}
	}
	li := ir.Layout(t)
	name := pb.DeclareGlobal(ir.Global{
		Bytes: ubmach.ByteCells(make([]byte, li.Size)),
		Align: li.Align,
	})
	return ir.GlobalPlace{Name: name, Type: t}
}

// DeclareGlobal declares a global from a raw image and returns its name.
// The image is copied; relocations must stay inside the image extent and
// must not overlap one another, and their covered cells are stamped as
// pointer fragments.
func (pb *ProgramBuilder) DeclareGlobal(g ir.Global) ir.GlobalName {
	if pb.finished {
		pb.fail(errors.BuilderMisuse("declare global on a finished program"))
		return ""
	}
	if g.Align == 0 || g.Align&(g.Align-1) != 0 {
		pb.fail(errors.BuilderMisuse("global alignment %d is not a power of two", g.Align))
		return ""
	}
	size := g.Size()
	for i, r := range g.Relocs {
		if size < ir.PtrSize || r.Offset > size-ir.PtrSize {
			pb.fail(errors.BuilderMisuse("relocation at offset %d escapes global of %d bytes", r.Offset, size))
			return ""
		}
		for _, q := range g.Relocs[:i] {
			if r.Offset < q.Offset+ir.PtrSize && q.Offset < r.Offset+ir.PtrSize {
				pb.fail(errors.BuilderMisuse("relocations at offsets %d and %d overlap", q.Offset, r.Offset))
				return ""
			}
		}
	}

	frozen := &ir.Global{
		Bytes:  slices.Clone(g.Bytes),
		Relocs: slices.Clone(g.Relocs),
		Align:  g.Align,
	}
	for _, r := range frozen.Relocs {
		for i := r.Offset; i < r.Offset+ir.PtrSize; i++ {
			frozen.Bytes[i] = ubmach.Cell{State: ubmach.CellPointer}
		}
	}

	name := ir.GlobalName(fmt.Sprintf("g%d", pb.nextGlobal))
	pb.nextGlobal++
	pb.globals[name] = frozen
	return name
}

// GlobalPlace returns a typed view of a declared global.
func (pb *ProgramBuilder) GlobalPlace(name ir.GlobalName, t ir.Type) ir.PlaceExpr {
	if !ir.Complete(t) {
		pb.fail(errors.BuilderMisuse("global place %q without a complete type", name))
	}
	if _, ok := pb.globals[name]; !ok {
		pb.fail(errors.BuilderMisuse("global %q not declared", name))
	}
	return ir.GlobalPlace{Name: name, Type: t}
}
