// Package ir defines the program representation of the abstract machine:
// the type descriptor catalogue, machine values with their byte codec, and
// the immutable program graph produced by the build package.
//
// # Types
//
// The catalogue is a closed set of three descriptor variants: Int, Bool and
// Ref. Every variant carries enough information to answer the three
// questions the machine asks of a type: its Layout (size and alignment),
// how a Value of it encodes into cells and relocations, and whether a span
// of memory is valid for it. Validity is checked only when bytes are read
// at a type, never when they are written.
//
// # Values
//
// A Value remembers the descriptor that produced it. Assignments encode at
// the value's type, so the declared type of the destination place never
// constrains what lands in memory.
//
// # Programs
//
// A Program is a name-keyed collection of functions and globals plus an
// entry point. Statements, terminators, places and value expressions are
// sealed variant sets; consumers dispatch with a type switch and treat an
// unknown variant as a malformed program.
package ir
