package domain

import "fmt"

// ErrorKind classifies a failed calculation.
type ErrorKind string

const (
	SyntaxError ErrorKind = "syntax_error"
	MathError   ErrorKind = "math_error"   // NaN or infinite result
	DomainError ErrorKind = "domain_error" // e.g. factorial of a negative number
)

// Label is the short text shown on the display while the error dwells.
func (k ErrorKind) Label() string {
	switch k {
	case SyntaxError:
		return "Syntax Error"
	case MathError:
		return "Math Error"
	case DomainError:
		return "Domain Error"
	default:
		return "Error"
	}
}

// Result is the tagged outcome of an evaluation: a value or an error kind.
type Result struct {
	Value float64
	Kind  ErrorKind // empty on success
	Cause string    // diagnostic detail, never shown on the display
}

// Ok builds a successful result.
func Ok(v float64) Result {
	return Result{Value: v}
}

// Fail builds a failed result.
func Fail(kind ErrorKind, format string, args ...any) Result {
	return Result{Kind: kind, Cause: fmt.Sprintf(format, args...)}
}

// IsOk reports whether the result holds a value.
func (r Result) IsOk() bool {
	return r.Kind == ""
}

func (r Result) String() string {
	if r.IsOk() {
		return fmt.Sprintf("Ok(%v)", r.Value)
	}
	return fmt.Sprintf("Err(%s: %s)", r.Kind, r.Cause)
}
