package domain

import "strings"

// Function is a unary scientific function applied to the whole buffer.
type Function string

const (
	FuncSin   Function = "sin"
	FuncCos   Function = "cos"
	FuncTan   Function = "tan"
	FuncAsin  Function = "asin"
	FuncAcos  Function = "acos"
	FuncAtan  Function = "atan"
	FuncLn    Function = "ln"
	FuncLog10 Function = "log"
	FuncExp   Function = "exp"
	FuncPow10 Function = "10pow"
	FuncSqrt  Function = "sqrt"
	FuncFact  Function = "fact"
)

var functionAliases = map[string]Function{
	"sin":       FuncSin,
	"cos":       FuncCos,
	"tan":       FuncTan,
	"asin":      FuncAsin,
	"acos":      FuncAcos,
	"atan":      FuncAtan,
	"ln":        FuncLn,
	"log":       FuncLog10,
	"log10":     FuncLog10,
	"exp":       FuncExp,
	"10pow":     FuncPow10,
	"10^x":      FuncPow10,
	"sqrt":      FuncSqrt,
	"√":         FuncSqrt,
	"fact":      FuncFact,
	"factorial": FuncFact,
	"n!":        FuncFact,
}

// LookupFunction resolves a function name or alias (case-insensitive).
func LookupFunction(name string) (Function, bool) {
	f, ok := functionAliases[strings.ToLower(name)]
	return f, ok
}

// Trigonometric reports whether f takes an angle as input.
func (f Function) Trigonometric() bool {
	return f == FuncSin || f == FuncCos || f == FuncTan
}

// InverseTrigonometric reports whether f produces an angle.
func (f Function) InverseTrigonometric() bool {
	return f == FuncAsin || f == FuncAcos || f == FuncAtan
}

// Category returns the history operation type recorded for f.
func (f Function) Category() OperationType {
	switch f {
	case FuncSin, FuncCos, FuncTan, FuncAsin, FuncAcos, FuncAtan:
		return OpTrigonometric
	case FuncLn, FuncLog10:
		return OpLogarithmic
	case FuncExp, FuncPow10:
		return OpExponential
	default:
		return OpScientific
	}
}

// Constant is an insertable mathematical constant.
type Constant string

const (
	ConstPi Constant = "pi"
	ConstE  Constant = "e"
)
