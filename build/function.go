package build

import (
	"github.com/ubmach/ubmach/errors"
	"github.com/ubmach/ubmach/ir"
)

// FunctionBuilder accumulates one function: its locals and a single
// straight-line block closed by Exit. Obtain one from DeclareFunction.
type FunctionBuilder struct {
	pb         *ProgramBuilder
	name       ir.FunctionName
	locals     []ir.Local
	stmts      []ir.Statement
	blocks     []ir.BasicBlock
	err        *errors.Error
	finished   bool
	terminated bool
}

// Err returns the first misuse recorded on this builder, if any.
func (fb *FunctionBuilder) Err() error {
	if fb.err != nil {
		return fb.err
	}
	return nil
}

func (fb *FunctionBuilder) fail(e *errors.Error) {
	if fb.err == nil {
		fb.err = e
	}
	fb.pb.fail(e)
}

// DeclareLocal reserves a local of type t. The local starts dead; storage
// appears only between StorageLive and StorageDead.
func (fb *FunctionBuilder) DeclareLocal(t ir.Type) ir.LocalID {
	id := ir.LocalID(len(fb.locals))
	if fb.err != nil {
		return id
	}
	if fb.finished {
		fb.fail(errors.BuilderMisuse("declare local on finished function %s", fb.name))
		return id
	}
	if !ir.Complete(t) {
		fb.fail(errors.BuilderMisuse("declare local without a complete type in function %s", fb.name))
		return id
	}
	fb.locals = append(fb.locals, ir.Local{ID: id, Type: t})
	return id
}

// StorageLive emits a liveness start for l.
func (fb *FunctionBuilder) StorageLive(l ir.LocalID) {
	if !fb.checkLocal(l) {
		return
	}
	fb.push(ir.StorageLive{Local: l})
}

// StorageDead emits a liveness end for l.
func (fb *FunctionBuilder) StorageDead(l ir.LocalID) {
	if !fb.checkLocal(l) {
		return
	}
	fb.push(ir.StorageDead{Local: l})
}

// Assign emits dst = src.
func (fb *FunctionBuilder) Assign(dst ir.PlaceExpr, src ir.ValueExpr) {
	if !fb.checkPlace(dst) || !fb.checkValue(src) {
		return
	}
	fb.push(ir.Assign{Dst: dst, Src: src})
}

// Assume emits an assumption over a boolean expression.
func (fb *FunctionBuilder) Assume(cond ir.ValueExpr) {
	if !fb.checkValue(cond) {
		return
	}
	fb.push(ir.Assume{Cond: cond})
}

// Exit terminates the block. The function can be finished afterwards;
// further statements are misuse.
func (fb *FunctionBuilder) Exit() {
	if fb.err != nil {
		return
	}
	if fb.finished {
		fb.fail(errors.BuilderMisuse("exit on finished function %s", fb.name))
		return
	}
	if fb.terminated {
		fb.fail(errors.BuilderMisuse("function %s already terminated", fb.name))
		return
	}
	fb.blocks = append(fb.blocks, ir.BasicBlock{Statements: fb.stmts, Term: ir.Exit{}})
	fb.stmts = nil
	fb.terminated = true
}

func (fb *FunctionBuilder) push(s ir.Statement) {
	if fb.err != nil {
		return
	}
	if fb.finished {
		fb.fail(errors.BuilderMisuse("statement on finished function %s", fb.name))
		return
	}
	if fb.terminated {
		fb.fail(errors.BuilderMisuse("statement after exit in function %s", fb.name))
		return
	}
	fb.stmts = append(fb.stmts, s)
}

// checkLocal validates that l was declared on this builder.
func (fb *FunctionBuilder) checkLocal(l ir.LocalID) bool {
	if fb.err != nil {
		return false
	}
	if int(l) >= len(fb.locals) {
		fb.fail(errors.BuilderMisuse("local _%d not declared in function %s", l, fb.name))
		return false
	}
	return true
}

// checkPlace validates every local and type operand mentioned in a place
// expression.
func (fb *FunctionBuilder) checkPlace(p ir.PlaceExpr) bool {
	if fb.err != nil {
		return false
	}
	switch p := p.(type) {
	case ir.LocalID:
		return fb.checkLocal(p)
	case ir.Deref:
		if !ir.Complete(p.Pointee) {
			fb.fail(errors.BuilderMisuse("deref without a complete pointee type in function %s", fb.name))
			return false
		}
		return fb.checkValue(p.Ptr)
	case ir.GlobalPlace:
		if !ir.Complete(p.Type) {
			fb.fail(errors.BuilderMisuse("global place %q without a complete type in function %s", p.Name, fb.name))
			return false
		}
		if _, ok := fb.pb.globals[p.Name]; !ok {
			fb.fail(errors.BuilderMisuse("global %q not declared", p.Name))
			return false
		}
		return true
	case nil:
		fb.fail(errors.BuilderMisuse("nil place in function %s", fb.name))
		return false
	default:
		fb.fail(errors.BuilderMisuse("unknown place variant %T", p))
		return false
	}
}

// checkValue validates every local and type operand mentioned in a value
// expression.
func (fb *FunctionBuilder) checkValue(v ir.ValueExpr) bool {
	if fb.err != nil {
		return false
	}
	switch v := v.(type) {
	case ir.Const:
		if !ir.Complete(v.Type) {
			fb.fail(errors.BuilderMisuse("const without a complete type in function %s", fb.name))
			return false
		}
		return true
	case ir.Load:
		return fb.checkPlace(v.Place)
	case ir.AddrOf:
		if !ir.Complete(v.Type) {
			fb.fail(errors.BuilderMisuse("addr-of without a complete reference type in function %s", fb.name))
			return false
		}
		return fb.checkPlace(v.Place)
	case nil:
		fb.fail(errors.BuilderMisuse("nil value expression in function %s", fb.name))
		return false
	default:
		fb.fail(errors.BuilderMisuse("unknown value variant %T", v))
		return false
	}
}
