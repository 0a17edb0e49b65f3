// Package build constructs machine programs incrementally.
//
// A ProgramBuilder owns the program under construction; FunctionBuilders
// returned by DeclareFunction accumulate locals and statements until
// FinishFunction freezes them. FinishProgram then seals everything into an
// immutable ir.Program.
//
//	pb := build.NewProgramBuilder()
//	fb := pb.DeclareFunction()
//	x := fb.DeclareLocal(ir.U8)
//	fb.StorageLive(x)
//	fb.Assign(x, build.ConstInt(ir.U8, 2))
//	fb.Exit()
//	entry, err := pb.FinishFunction(fb)
//	prog, err := pb.FinishProgram(entry)
//
// Misuse of the call sequence (statements after Exit, finishing twice,
// referencing undeclared locals) does not panic: the first offense is
// recorded and every later call is a no-op until the error surfaces
// through Err or the next Finish call. A builder never produces a
// partially valid program.
//
// Builders are single-owner and not safe for concurrent use.
package build
