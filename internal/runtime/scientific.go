package runtime

import (
	"math"

	"github.com/aretw0/abacus/pkg/domain"
)

// MaxFactorial is the largest argument whose factorial is finite in float64.
const MaxFactorial = 170

// ApplyFunction computes f(x). Trigonometric inputs and inverse
// trigonometric outputs are interpreted in the given angle mode.
func ApplyFunction(f domain.Function, x float64, mode domain.AngleMode) domain.Result {
	if f.Trigonometric() && mode == domain.Degrees {
		x = x * math.Pi / 180
	}

	var v float64
	switch f {
	case domain.FuncSin:
		v = math.Sin(x)
	case domain.FuncCos:
		v = math.Cos(x)
	case domain.FuncTan:
		v = math.Tan(x)
	case domain.FuncAsin:
		v = math.Asin(x)
	case domain.FuncAcos:
		v = math.Acos(x)
	case domain.FuncAtan:
		v = math.Atan(x)
	case domain.FuncLn:
		v = math.Log(x)
	case domain.FuncLog10:
		v = math.Log10(x)
	case domain.FuncExp:
		v = math.Exp(x)
	case domain.FuncPow10:
		v = math.Pow(10, x)
	case domain.FuncSqrt:
		v = math.Sqrt(x)
	case domain.FuncFact:
		return Factorial(x)
	default:
		return domain.Fail(domain.SyntaxError, "unknown function %q", f)
	}

	if f.InverseTrigonometric() && mode == domain.Degrees {
		v = v * 180 / math.Pi
	}
	return checkFinite(v)
}

// Factorial computes n! for integral 0 <= n <= MaxFactorial.
func Factorial(n float64) domain.Result {
	if n < 0 || n != math.Floor(n) {
		return domain.Fail(domain.DomainError, "factorial of negative or non-integer %v", n)
	}
	if n > MaxFactorial {
		return domain.Fail(domain.DomainError, "factorial of %v overflows", n)
	}
	result := 1.0
	for i := 2.0; i <= n; i++ {
		result *= i
	}
	return domain.Ok(result)
}
