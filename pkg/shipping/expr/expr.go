package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel evaluation errors.
var (
	// ErrDivisionByZero indicates a division by zero during evaluation.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNotBoolean indicates the expression has no comparison operator
	// and therefore no boolean value.
	ErrNotBoolean = errors.New("expression is not a comparison")
)

// UnknownVariableError indicates the expression references an
// identifier not present in the variable map.
type UnknownVariableError struct {
	Name string
}

// Error returns the error message.
func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// blockedSubstrings never appear in a legitimate guard expression.
// The parser already rejects anything outside the grammar; this check
// is kept as defense in depth against rule text that was authored for
// an interpreter with more reach.
var blockedSubstrings = []string{"__", "import", "exec", "eval", "compile", "open"}

// Evaluate evaluates a guard expression against a set of numeric
// variables and returns its boolean value.
//
// Evaluate is total and fails closed: blocked substrings, syntax
// errors, unknown identifiers, division by zero, and non-boolean
// expressions all return false. The variable map is never mutated.
// Identical (input, vars) arguments always produce the identical
// result.
func Evaluate(input string, vars map[string]float64) bool {
	for _, s := range blockedSubstrings {
		if strings.Contains(input, s) {
			return false
		}
	}

	e, err := Parse(input)
	if err != nil {
		return false
	}

	ok, err := e.EvalBool(vars)
	if err != nil {
		return false
	}
	return ok
}
