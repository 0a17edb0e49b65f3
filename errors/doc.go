// Package errors provides structured diagnostics for the abstract machine.
//
// Errors are categorized by Phase (where the failure was detected) and Kind
// (what went wrong). The Error type carries the offending machine type, the
// path to the failing statement or place, and a cause chain.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindInvalidValue).
//		Path("main", "b0", "s2").
//		Type("bool").
//		Detail("byte 0x02 is not a boolean").
//		Build()
//
// Or use convenience constructors for the canonical diagnoses:
//
//	err := errors.InvalidValue(errors.PhaseValidate, path, "bool")
//	err := errors.OutOfBounds(errors.PhaseMemory, path, 4, 8, 8)
//
// The kinds KindOutOfLiveness, KindInvalidValue and KindOutOfBounds are
// undefined-behavior diagnoses and terminate an evaluation. KindBuilderMisuse
// reports misuse of the program builder and never escapes construction.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
