// Package eval executes machine programs and reports the first undefined
// behavior they exhibit.
//
// Run materializes the program's globals into a fresh store, resolves
// their named relocations to allocation identities, and then steps the
// entry function's statements linearly. The first violated invariant
// halts the run with a structured diagnosis:
//
//	outcome, err := eval.Run(prog)
//	if err != nil {
//	    // malformed program, not UB
//	}
//	if !outcome.Success() {
//	    fmt.Println(outcome.UB())
//	}
//
// The two return values separate two very different failures. The error
// covers programs the machine cannot meaningfully execute at all: a nil
// program, an unknown entry, an expression tree whose shape contradicts
// itself. Outcome carries the semantic verdict about a well-formed
// program, including the undefined behavior the machine exists to find.
//
// Each Run gets a fresh BasicMemory unless WithMemory injects one, so
// repeated runs of the same Program are independent.
package eval
