// Package ubmach implements a minimal abstract machine for probing
// undefined-behavior detection in a type-erased memory model.
//
// Programs are built in-process with the build package, frozen into an
// immutable ir.Program, and executed by the eval package against a fresh
// byte-addressable store. The store is untyped: a write lays down raw cells
// and relocations no matter which type the destination place was declared
// at. Type checking happens exclusively at the moment of a typed read,
// against the type that read requests, which may not be the type that
// produced the bytes. The first violated validity invariant halts the run
// with a structured UB diagnosis.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	ubmach/          Root package with the core memory vocabulary
//	├── ir/          Type catalogue, machine values, program representation
//	├── build/       Incremental program construction
//	├── mem/         Byte-addressable store with uninitialized-cell
//	│                tracking and abstract pointer relocations
//	├── eval/        Linear state machine executing an entry function
//	└── errors/      Structured diagnostics naming the offending type
//
// # Quick Start
//
// Build and run a program:
//
//	pb := build.NewProgramBuilder()
//	fb := pb.DeclareFunction()
//	x := fb.DeclareLocal(ir.U8)
//	fb.StorageLive(x)
//	fb.Assign(x, build.ConstInt(ir.U8, 2))
//	fb.Exit()
//	entry, err := pb.FinishFunction(fb)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog, err := pb.FinishProgram(entry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome, err := eval.Run(prog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !outcome.Success() {
//	    fmt.Println(outcome.UB())
//	}
//
// # Memory Model
//
// Pointers are abstract (allocation, offset) pairs. An allocation is a
// sequence of cells, each one uninitialized, a literal byte, or a fragment
// of an abstract pointer recorded in a sparse relocation table. Allocation
// identities are never reused, so liveness of a pointer target is a direct
// lookup and a dangling pointer can never alias a later allocation.
//
// # Thread Safety
//
// A Memory and everything layered on it is confined to a single goroutine.
// Run separate evaluations on separate stores for parallelism.
package ubmach
