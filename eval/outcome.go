package eval

import "github.com/ubmach/ubmach/errors"

// Outcome is the semantic result of one evaluation: success, or the first
// undefined-behavior diagnosis. A UB outcome is a finding about the
// program, not a failure of the evaluator.
type Outcome struct {
	ub *errors.Error
}

// Success reports whether the program ran to Exit without UB.
func (o Outcome) Success() bool {
	return o.ub == nil
}

// UB returns the diagnosis that halted the evaluation, or nil on success.
func (o Outcome) UB() *errors.Error {
	return o.ub
}

func (o Outcome) String() string {
	if o.ub == nil {
		return "success"
	}
	return "ub: " + o.ub.Error()
}
