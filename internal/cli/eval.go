package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/runner"
)

// ErrCalculationFailed is returned when at least one calculation failed.
// The failures themselves are already printed.
var ErrCalculationFailed = errors.New("calculation failed")

// Outcome is one evaluated expression as printed in JSON mode.
type Outcome struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Display    string  `json:"display"`
	Error      string  `json:"error,omitempty"`
	Cause      string  `json:"cause,omitempty"`
}

// Evaluate computes each expression and prints "expression = display",
// or one JSON object per line when asJSON is set.
func Evaluate(w io.Writer, engine *abacus.Engine, expressions []string, asJSON bool) error {
	failed := false
	for _, expr := range expressions {
		clean, err := runner.SanitizeInput(expr)
		if err != nil {
			return fmt.Errorf("input rejected: %w", err)
		}
		display, res := engine.Evaluate(clean)
		if !res.IsOk() {
			failed = true
		}
		if err := printOutcome(w, clean, display, res, asJSON); err != nil {
			return err
		}
	}
	if failed {
		return ErrCalculationFailed
	}
	return nil
}

// ApplyFunction computes f(x) in the given angle mode and prints it like Evaluate.
func ApplyFunction(w io.Writer, engine *abacus.Engine, name string, x float64, mode domain.AngleMode, asJSON bool) error {
	f, err := abacus.ParseFunction(name)
	if err != nil {
		return err
	}
	display, res := engine.Apply(f, x, mode)
	expression := fmt.Sprintf("%s(%g)", f, x)
	if err := printOutcome(w, expression, display, res, asJSON); err != nil {
		return err
	}
	if !res.IsOk() {
		return ErrCalculationFailed
	}
	return nil
}

func printOutcome(w io.Writer, expression, display string, res domain.Result, asJSON bool) error {
	if asJSON {
		o := Outcome{Expression: expression, Result: res.Value, Display: display}
		if !res.IsOk() {
			o = Outcome{Expression: expression, Error: res.Kind.Label(), Cause: res.Cause}
		}
		return json.NewEncoder(w).Encode(o)
	}
	if !res.IsOk() {
		display = res.Kind.Label()
	}
	_, err := fmt.Fprintf(w, "%s = %s\n", expression, display)
	return err
}
