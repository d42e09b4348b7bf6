package abacus_test

import (
	"context"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_Session(t *testing.T) {
	engine := abacus.New()
	ctx := context.Background()

	state := engine.Start("facade")
	assert.Equal(t, "0", state.Display())
	assert.Equal(t, domain.Degrees, state.AngleMode)

	require.NoError(t, engine.Input(ctx, state, "12+3*2 ="))
	view := engine.Render(state)
	assert.Equal(t, "18", view.Display)
	assert.Equal(t, "12+3*2 =", view.Annotation)
	assert.Equal(t, domain.StateAwaitingFresh, view.Mode)

	require.NoError(t, engine.Input(ctx, state, "m+ ac 2 m- mr"))
	assert.Equal(t, "16", state.Display())
}

func TestFacade_InputRejectsUnknownLabelsAtomically(t *testing.T) {
	engine := abacus.New()
	state := engine.Start("atomic")

	err := engine.Input(context.Background(), state, "1 2 bogus 3")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
	assert.Equal(t, "0", state.Display(), "no key is applied when parsing fails")
}

func TestFacade_ErrorResetsInputImmediately(t *testing.T) {
	engine := abacus.New()
	state := engine.Start("err")

	require.NoError(t, engine.Input(context.Background(), state, "5+*3="))
	view := engine.Render(state)
	assert.True(t, view.Error)
	assert.Equal(t, "Syntax Error", view.Display)
	assert.Equal(t, "0", view.Input)
}

func TestFacade_Evaluate(t *testing.T) {
	engine := abacus.New()

	display, r := engine.Evaluate("2^3^2")
	require.True(t, r.IsOk())
	assert.Equal(t, "512", display)
	assert.Equal(t, 512.0, r.Value)

	display, r = engine.Evaluate("1/0")
	assert.Empty(t, display)
	assert.Equal(t, domain.MathError, r.Kind)
}

func TestFacade_Apply(t *testing.T) {
	engine := abacus.New()

	display, r := engine.Apply(domain.FuncFact, 5, domain.Degrees)
	require.True(t, r.IsOk())
	assert.Equal(t, "120", display)

	_, r = engine.Apply(domain.FuncFact, 171, domain.Degrees)
	assert.Equal(t, domain.DomainError, r.Kind)

	_, r = engine.Apply(domain.FuncSin, 1, domain.AngleMode("grad"))
	assert.Equal(t, domain.SyntaxError, r.Kind)
}

func TestFacade_Hooks(t *testing.T) {
	var got []string
	engine := abacus.New(abacus.WithLifecycleHooks(domain.LifecycleHooks{
		OnCalculation: func(_ context.Context, e *domain.CalculationEvent) {
			got = append(got, e.Expression+"="+e.Result)
		},
	}))
	state := engine.Start("hooks")

	require.NoError(t, engine.Input(context.Background(), state, "6*7= ac 16 sqrt"))
	assert.Equal(t, []string{"6*7=42", "sqrt(16)=4"}, got)
}

func TestFacade_CustomEvaluator(t *testing.T) {
	engine := abacus.New(abacus.WithEvaluator(abacus.EvaluatorFunc(func(expr string) domain.Result {
		return domain.Fail(domain.MathError, "always fails")
	})))
	state := engine.Start("custom")

	require.NoError(t, engine.Input(context.Background(), state, "1+1="))
	assert.Equal(t, "Math Error", state.Display())
}

func TestParseFunction(t *testing.T) {
	f, err := abacus.ParseFunction("Factorial")
	require.NoError(t, err)
	assert.Equal(t, domain.FuncFact, f)

	_, err = abacus.ParseFunction("cosh")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}
