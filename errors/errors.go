package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the failure was detected
type Phase string

const (
	PhaseBuild    Phase = "build"    // program construction
	PhaseMemory   Phase = "memory"   // raw memory access
	PhaseValidate Phase = "validate" // typed-read validity checking
	PhaseEval     Phase = "eval"     // statement execution
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfLiveness Kind = "out_of_liveness" // storage accessed outside its live range
	KindInvalidValue  Kind = "invalid_value"   // bytes violate the validity invariant of the read type
	KindOutOfBounds   Kind = "out_of_bounds"   // access outside the allocation extent
	KindBuilderMisuse Kind = "builder_misuse"  // ill-formed builder call sequence
)

// Error is the structured error type used throughout the machine
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// UB reports whether the error is an undefined-behavior diagnosis rather
// than a misuse of the construction API.
func (e *Error) UB() bool {
	return e.Kind != KindBuilderMisuse
}

// AsError extracts a structured *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the statement or place path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the offending machine type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the canonical diagnoses

// InvalidValue creates a validity-invariant violation for a typed read.
// The detail names the requested type, not the type that produced the bytes.
func InvalidValue(phase Phase, path []string, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidValue,
		Path:   path,
		Type:   typeName,
		Detail: fmt.Sprintf("Reference to invalid type: load at type %s but the data in memory violates the validity invariant", typeName),
	}
}

// OutOfLiveness creates a dead-storage access error
func OutOfLiveness(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfLiveness,
		Path:   path,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds access error
func OutOfBounds(phase Phase, path []string, offset, n, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("access of %d bytes at offset %d exceeds allocation size %d", n, offset, size),
		Value:  offset,
	}
}

// BuilderMisuse creates an ill-formed construction error
func BuilderMisuse(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindBuilderMisuse,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
