package runtime

import (
	"testing"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovalEvaluator_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"5+3", 8},
		{"10-4", 6},
		{"6*7", 42},
		{"20/5", 4},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"2^3^2", 512},
		{"-2^2", -4},
		{"(-2)^2", 4},
		{"2^-1", 0.5},
		{"5+-3", 2},
		{"--5", 5},
		{"+5", 5},
		{"10/4*2", 5},
		{"8-3-2", 3},
		{"3.", 3},
		{".5*2", 1},
		{"1.5e-10*2", 3e-10},
		{" 1 + 2 ", 3},
	}

	ev := NewGovalEvaluator()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := ev.Evaluate(tt.expr)
			require.True(t, r.IsOk(), "unexpected failure: %s", r)
			assert.InDelta(t, tt.want, r.Value, 1e-12)
		})
	}
}

func TestGovalEvaluator_FloatingPoint(t *testing.T) {
	r := NewGovalEvaluator().Evaluate("0.1+0.2")
	require.True(t, r.IsOk())
	assert.InDelta(t, 0.3, r.Value, 1e-15)
}

func TestGovalEvaluator_Errors(t *testing.T) {
	tests := []struct {
		expr string
		kind domain.ErrorKind
	}{
		{"", domain.SyntaxError},
		{"   ", domain.SyntaxError},
		{"5+*3", domain.SyntaxError},
		{"5+", domain.SyntaxError},
		{"*5", domain.SyntaxError},
		{"(2+3", domain.SyntaxError},
		{"2+3)", domain.SyntaxError},
		{"()", domain.SyntaxError},
		{"2(3)", domain.SyntaxError},
		{"(2)(3)", domain.SyntaxError},
		{"1.2.3", domain.SyntaxError},
		{".", domain.SyntaxError},
		{"abc", domain.SyntaxError},
		{"2^", domain.SyntaxError},
		{"1/0", domain.MathError},
		{"0/0", domain.MathError},
		{"10^400", domain.MathError},
		{"(-8)^0.5", domain.MathError},
	}

	ev := NewGovalEvaluator()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := ev.Evaluate(tt.expr)
			assert.False(t, r.IsOk())
			assert.Equal(t, tt.kind, r.Kind, "cause: %s", r.Cause)
		})
	}
}

func TestCompile_ParenthesizesEveryOperation(t *testing.T) {
	c, err := compile("1+2*3^4")
	require.NoError(t, err)
	assert.Equal(t, "(n0 + (n1 * (n2 ** n3)))", c.expr)
	assert.Equal(t, map[string]any{"n0": 1.0, "n1": 2.0, "n2": 3.0, "n3": 4.0}, c.params)
}

func TestCompile_Errors(t *testing.T) {
	_, err := compile("")
	assert.ErrorIs(t, err, errEmpty)

	_, err = compile("(1+2")
	assert.ErrorIs(t, err, errUnbalanced)

	_, err = compile("1+2)")
	assert.ErrorIs(t, err, errUnbalanced)

	_, err = compile("3*()")
	assert.ErrorIs(t, err, errEmptyGroup)
}

func TestEvaluatorFunc(t *testing.T) {
	var ev Evaluator = EvaluatorFunc(func(string) domain.Result { return domain.Ok(42) })
	assert.Equal(t, domain.Ok(42), ev.Evaluate("anything"))
}
