// Package format renders calculation results for a bounded-width display.
package format

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MaxPlainLength is the longest plain decimal rendering kept as-is.
	MaxPlainLength = 12
	// SignificantDigits is the precision used when a plain rendering is too long.
	SignificantDigits = 10
	// ExponentDigits is the number of fractional digits in exponential notation.
	ExponentDigits = 6

	upperBound = 1e15
	lowerBound = 1e-15
)

// Result converts a finite value into a display string.
// Values beyond 1e15 or below 1e-15 in magnitude use exponential notation
// ("1.234568e+20"); zero never does. Plain renderings longer than
// MaxPlainLength are rounded to SignificantDigits and re-rendered.
func Result(v float64) string {
	abs := math.Abs(v)
	if abs > upperBound || (abs < lowerBound && v != 0) {
		return strconv.FormatFloat(v, 'e', ExponentDigits, 64)
	}

	s := Number(v)
	if len(s) > MaxPlainLength {
		return Number(RoundSignificant(v, SignificantDigits))
	}
	return s
}

// RoundSignificant rounds v to the given number of significant digits.
func RoundSignificant(v float64, digits int) float64 {
	if digits < 1 {
		digits = 1
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'e', digits-1, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Number renders v as the shortest string that round-trips, following the
// ECMAScript Number-to-String rules: plain decimal for 1e-6 <= |v| < 1e21,
// otherwise "d.ddde+N" without exponent padding. Negative zero renders as "0".
func Number(v float64) string {
	switch {
	case v == 0:
		return "0"
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	if n := decimalExponent(v); n > -6 && n <= 21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	// Shortest mantissa with an unpadded, always-signed exponent.
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, e, _ := strings.Cut(s, "e")
	sign := e[:1]
	digits := strings.TrimLeft(e[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

// decimalExponent returns n such that 10^(n-1) <= |v| < 10^n, computed from
// the shortest decimal representation so it agrees with the rendered digits.
func decimalExponent(v float64) int {
	s := strconv.FormatFloat(math.Abs(v), 'e', -1, 64)
	_, e, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(e)
	return n + 1
}
