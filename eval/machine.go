package eval

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ubmach/ubmach"
	"github.com/ubmach/ubmach/errors"
	"github.com/ubmach/ubmach/ir"
	"github.com/ubmach/ubmach/mem"
)

// Memory is what the machine needs from a store: the raw type-erased
// contract plus the typed-read checkpoint.
type Memory interface {
	ubmach.Memory
	ReadTyped(p ubmach.Pointer, t ir.Type) (ir.Value, *errors.Error)
}

// Machine evaluates programs. The zero value runs each program against a
// fresh BasicMemory with the package logger.
type Machine struct {
	mem Memory
	log *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithMemory runs evaluations against m instead of a fresh store per run.
// The caller owns m's prior contents and lifetime.
func WithMemory(m Memory) Option {
	return func(mc *Machine) {
		mc.mem = m
	}
}

// WithLogger overrides the package logger for this machine.
func WithLogger(l *zap.Logger) Option {
	return func(mc *Machine) {
		mc.log = l
	}
}

// NewMachine creates a machine with the given options.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run evaluates p on a fresh machine. Shorthand for NewMachine(opts...).Run(p).
func Run(p *ir.Program, opts ...Option) (Outcome, error) {
	return NewMachine(opts...).Run(p)
}

// Run executes p's entry function to its Exit or to the first undefined
// behavior. The error return marks a malformed program; every semantic
// verdict, UB included, arrives in the Outcome.
func (m *Machine) Run(p *ir.Program) (Outcome, error) {
	if p == nil {
		return Outcome{}, fmt.Errorf("run of a nil program")
	}
	fn, ok := p.Functions[p.Entry]
	if !ok {
		return Outcome{}, fmt.Errorf("entry function %q not in program", p.Entry)
	}
	if len(fn.Blocks) == 0 {
		return Outcome{}, fmt.Errorf("entry function %s has no blocks", fn.Name)
	}

	store := m.mem
	if store == nil {
		store = mem.New()
	}
	log := m.log
	if log == nil {
		log = Logger()
	}

	ex := &execution{
		prog:   p,
		mem:    store,
		log:    log,
		fn:     fn,
		locals: make([]slot, len(fn.Locals)),
	}
	if err := ex.materializeGlobals(); err != nil {
		return Outcome{}, err
	}

	log.Debug("run", zap.String("entry", string(p.Entry)))
	return ex.run()
}

// slot tracks one local's current storage.
type slot struct {
	ptr  ubmach.Pointer
	live bool
}

// execution is the per-run state: the store, the frame and the statement
// cursor. It is discarded when the run halts.
type execution struct {
	prog    *ir.Program
	mem     Memory
	log     *zap.Logger
	fn      *ir.Function
	locals  []slot
	globals map[ir.GlobalName]ubmach.Pointer
	fnPtrs  map[ir.FunctionName]ubmach.Pointer
	block   int
	stmt    int
}

// materializeGlobals allocates every global and function, writes the
// global images, and patches named relocations into allocation
// identities. Allocation order follows name order so that IDs are stable
// across runs.
func (ex *execution) materializeGlobals() error {
	ex.globals = make(map[ir.GlobalName]ubmach.Pointer, len(ex.prog.Globals))
	ex.fnPtrs = make(map[ir.FunctionName]ubmach.Pointer, len(ex.prog.Functions))

	for _, name := range sortedNames(ex.prog.Globals) {
		g := ex.prog.Globals[name]
		base, err := ex.mem.Allocate(g.Size(), g.Align, ubmach.AllocGlobal)
		if err != nil {
			return fmt.Errorf("allocate global %s: %w", name, err)
		}
		ex.globals[name] = base
		ex.log.Debug("global allocated",
			zap.String("global", string(name)),
			zap.Uint64("alloc", uint64(base.Alloc)),
			zap.Uint32("size", g.Size()))
	}

	for _, name := range sortedNames(ex.prog.Functions) {
		base, err := ex.mem.Allocate(0, 1, ubmach.AllocFunction)
		if err != nil {
			return fmt.Errorf("allocate function %s: %w", name, err)
		}
		ex.fnPtrs[name] = base
	}

	for _, name := range sortedNames(ex.prog.Globals) {
		g := ex.prog.Globals[name]
		relocs := make([]ubmach.Reloc, 0, len(g.Relocs))
		for _, r := range g.Relocs {
			target, err := ex.resolveTarget(r.Target)
			if err != nil {
				return fmt.Errorf("global %s: %w", name, err)
			}
			relocs = append(relocs, ubmach.Reloc{Offset: r.Offset, Target: target})
		}
		if err := ex.mem.Write(ex.globals[name], g.Bytes, relocs); err != nil {
			return fmt.Errorf("initialize global %s: %w", name, err)
		}
	}
	return nil
}

// resolveTarget turns a named relocation target into a base pointer.
func (ex *execution) resolveTarget(t ir.RelocTarget) (ubmach.Pointer, error) {
	switch t := t.(type) {
	case ir.GlobalTarget:
		base, ok := ex.globals[ir.GlobalName(t)]
		if !ok {
			return ubmach.Pointer{}, fmt.Errorf("relocation against unknown global %q", string(t))
		}
		return base, nil
	case ir.FunctionTarget:
		base, ok := ex.fnPtrs[ir.FunctionName(t)]
		if !ok {
			return ubmach.Pointer{}, fmt.Errorf("relocation against unknown function %q", string(t))
		}
		return base, nil
	default:
		return ubmach.Pointer{}, fmt.Errorf("unhandled relocation target %T", t)
	}
}

// run steps the entry function from its first statement to a terminator
// or the first UB.
func (ex *execution) run() (Outcome, error) {
	blk := &ex.fn.Blocks[ex.block]
	for ex.stmt = 0; ex.stmt < len(blk.Statements); ex.stmt++ {
		s := blk.Statements[ex.stmt]
		ex.log.Debug("step",
			zap.String("fn", string(ex.fn.Name)),
			zap.Int("block", ex.block),
			zap.Int("stmt", ex.stmt),
			zap.String("op", ir.StatementString(s)))

		ub, err := ex.step(s)
		if err != nil {
			return Outcome{}, err
		}
		if ub != nil {
			ex.log.Debug("undefined behavior", zap.String("diagnosis", ub.Error()))
			return Outcome{ub: ub}, nil
		}
	}

	switch blk.Term.(type) {
	case ir.Exit:
		ex.log.Debug("exit", zap.String("fn", string(ex.fn.Name)))
		return Outcome{}, nil
	default:
		return Outcome{}, fmt.Errorf("unhandled terminator %T", blk.Term)
	}
}

func (ex *execution) step(s ir.Statement) (*errors.Error, error) {
	switch s := s.(type) {
	case ir.StorageLive:
		return ex.storageLive(s.Local)
	case ir.StorageDead:
		return ex.storageDead(s.Local)
	case ir.Assign:
		return ex.assign(s.Dst, s.Src)
	case ir.Assume:
		return ex.assume(s.Cond)
	default:
		return nil, fmt.Errorf("unhandled statement %T", s)
	}
}

func (ex *execution) storageLive(l ir.LocalID) (*errors.Error, error) {
	t, err := ex.fn.LocalType(l)
	if err != nil {
		return nil, err
	}

	// Reviving a live local replaces its storage. The old allocation
	// dies, so pointers taken into it dangle from here on.
	if ex.locals[l].live {
		if err := ex.mem.Deallocate(ex.locals[l].ptr); err != nil {
			return nil, fmt.Errorf("replace storage of _%d: %w", l, err)
		}
	}

	li := ir.Layout(t)
	ptr, err := ex.mem.Allocate(li.Size, li.Align, ubmach.AllocLocal)
	if err != nil {
		return nil, fmt.Errorf("storage for _%d: %w", l, err)
	}
	ex.locals[l] = slot{ptr: ptr, live: true}
	ex.log.Debug("storage live",
		zap.Uint32("local", uint32(l)),
		zap.Uint64("alloc", uint64(ptr.Alloc)))
	return nil, nil
}

func (ex *execution) storageDead(l ir.LocalID) (*errors.Error, error) {
	if _, err := ex.fn.LocalType(l); err != nil {
		return nil, err
	}
	if !ex.locals[l].live {
		return ex.diag(errors.OutOfLiveness(errors.PhaseEval, nil,
			fmt.Sprintf("local _%d storage is already dead", l))), nil
	}
	if err := ex.mem.Deallocate(ex.locals[l].ptr); err != nil {
		return nil, fmt.Errorf("release storage of _%d: %w", l, err)
	}
	ex.locals[l].live = false
	ex.log.Debug("storage dead", zap.Uint32("local", uint32(l)))
	return nil, nil
}

func (ex *execution) assign(dst ir.PlaceExpr, src ir.ValueExpr) (*errors.Error, error) {
	val, ub, err := ex.evalValue(src)
	if ub != nil || err != nil {
		return ub, err
	}
	loc, ub, err := ex.resolvePlace(dst)
	if ub != nil || err != nil {
		return ub, err
	}

	// The store happens at the value's own type. Nothing compares it to
	// the destination's declared type; a mismatch stays invisible until
	// a typed load looks at these bytes.
	cells, relocs := ir.EncodeValue(val)
	if err := ex.mem.Write(loc, cells, relocs); err != nil {
		if e, ok := errors.AsError(err); ok && e.UB() {
			return ex.diag(e), nil
		}
		return nil, fmt.Errorf("store to %v: %w", loc, err)
	}
	return nil, nil
}

func (ex *execution) assume(cond ir.ValueExpr) (*errors.Error, error) {
	val, ub, err := ex.evalValue(cond)
	if ub != nil || err != nil {
		return ub, err
	}
	b, ok := val.(ir.BoolVal)
	if !ok {
		return nil, fmt.Errorf("assume over %s, want bool", val.Type().Name())
	}
	if !b.B {
		// In a machine with branching this would cut the path; in a
		// linear block it only marks the rest unreachable.
		ex.log.Debug("assume is false, continuing on unreachable path",
			zap.String("fn", string(ex.fn.Name)),
			zap.Int("stmt", ex.stmt))
	}
	return nil, nil
}

// resolvePlace turns a place expression into a concrete location. Local
// liveness is checked on every access; everything about the bytes behind
// the location is deferred to the typed read or the raw write.
func (ex *execution) resolvePlace(p ir.PlaceExpr) (ubmach.Pointer, *errors.Error, error) {
	switch p := p.(type) {
	case ir.LocalID:
		if _, err := ex.fn.LocalType(p); err != nil {
			return ubmach.Pointer{}, nil, err
		}
		s := ex.locals[p]
		if !s.live {
			return ubmach.Pointer{}, ex.diag(errors.OutOfLiveness(errors.PhaseEval, nil,
				fmt.Sprintf("local _%d is not live", p))), nil
		}
		return s.ptr, nil, nil

	case ir.Deref:
		val, ub, err := ex.evalValue(p.Ptr)
		if ub != nil || err != nil {
			return ubmach.Pointer{}, ub, err
		}
		pv, ok := val.(ir.PtrVal)
		if !ok {
			return ubmach.Pointer{}, nil, fmt.Errorf("deref of %s, want a reference", val.Type().Name())
		}
		return pv.Ptr, nil, nil

	case ir.GlobalPlace:
		base, ok := ex.globals[p.Name]
		if !ok {
			return ubmach.Pointer{}, nil, fmt.Errorf("unknown global %q", p.Name)
		}
		return base, nil, nil

	default:
		return ubmach.Pointer{}, nil, fmt.Errorf("unhandled place %T", p)
	}
}

func (ex *execution) evalValue(e ir.ValueExpr) (ir.Value, *errors.Error, error) {
	switch e := e.(type) {
	case ir.Const:
		switch t := e.Type.(type) {
		case ir.Int:
			return ir.NewIntVal(t, e.Bits), nil, nil
		case ir.Bool:
			if e.Bits > 1 {
				return nil, nil, fmt.Errorf("boolean constant with bits %d", e.Bits)
			}
			return ir.BoolVal{B: e.Bits == 1}, nil, nil
		default:
			return nil, nil, fmt.Errorf("constant of type %s", e.Type.Name())
		}

	case ir.Load:
		loc, ub, err := ex.resolvePlace(e.Place)
		if ub != nil || err != nil {
			return nil, ub, err
		}
		t, err := ir.PlaceType(e.Place, ex.fn)
		if err != nil {
			return nil, nil, err
		}
		val, diag := ex.mem.ReadTyped(loc, t)
		if diag != nil {
			return nil, ex.diag(diag), nil
		}
		return val, nil, nil

	case ir.AddrOf:
		// Taking an address checks the place's liveness and nothing
		// else. The claimed pointee type is accepted as-is.
		loc, ub, err := ex.resolvePlace(e.Place)
		if ub != nil || err != nil {
			return nil, ub, err
		}
		return ir.PtrVal{Ref: e.Type, Ptr: loc}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unhandled value expression %T", e)
	}
}

// diag stamps the current statement path onto a fresh diagnosis.
func (ex *execution) diag(e *errors.Error) *errors.Error {
	if len(e.Path) == 0 {
		e.Path = []string{
			string(ex.fn.Name),
			"b" + strconv.Itoa(ex.block),
			"s" + strconv.Itoa(ex.stmt),
		}
	}
	return e
}

func sortedNames[K ~string, V any](m map[K]V) []K {
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
