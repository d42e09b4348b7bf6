package runtime

import (
	"math"

	"github.com/Knetic/govaluate"
	"github.com/aretw0/abacus/pkg/domain"
)

// Evaluator turns an expression string into a Result.
// Implementations never return NaN or infinite values as Ok.
type Evaluator interface {
	Evaluate(expression string) domain.Result
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expression string) domain.Result

// Evaluate calls f(expression).
func (f EvaluatorFunc) Evaluate(expression string) domain.Result {
	return f(expression)
}

// GovalEvaluator checks the calculator grammar and delegates the arithmetic
// to govaluate.
type GovalEvaluator struct{}

// NewGovalEvaluator creates the default evaluator.
func NewGovalEvaluator() *GovalEvaluator {
	return &GovalEvaluator{}
}

// Evaluate parses and computes expression.
func (GovalEvaluator) Evaluate(expression string) domain.Result {
	c, err := compile(expression)
	if err != nil {
		return domain.Fail(domain.SyntaxError, "%v", err)
	}

	expr, err := govaluate.NewEvaluableExpression(c.expr)
	if err != nil {
		return domain.Fail(domain.SyntaxError, "backend rejected %q: %v", c.expr, err)
	}
	out, err := expr.Evaluate(c.params)
	if err != nil {
		return domain.Fail(domain.SyntaxError, "backend failed on %q: %v", c.expr, err)
	}

	v, ok := out.(float64)
	if !ok {
		return domain.Fail(domain.SyntaxError, "result is not a number: %v", out)
	}
	return checkFinite(v)
}

func checkFinite(v float64) domain.Result {
	if math.IsNaN(v) {
		return domain.Fail(domain.MathError, "result is NaN")
	}
	if math.IsInf(v, 0) {
		return domain.Fail(domain.MathError, "result is infinite")
	}
	return domain.Ok(v)
}
