package abacus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/internal/runtime"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
)

// Evaluator computes an expression string. The default implementation checks
// the calculator grammar and delegates arithmetic to govaluate.
type Evaluator = runtime.Evaluator

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc = runtime.EvaluatorFunc

// Engine is the high-level entry point for the Abacus library.
// It wraps the internal state machine and provides a simplified API for consumers.
// An Engine holds no session state and is safe for concurrent use across
// sessions; a single *domain.State must not be driven concurrently.
type Engine struct {
	machine   *runtime.Machine
	evaluator Evaluator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEvaluator sets a custom expression evaluator for the engine.
func WithEvaluator(eval Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new calculator Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.evaluator == nil {
		eng.evaluator = runtime.NewGovalEvaluator()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.machine = runtime.NewMachine(
		runtime.WithEvaluator(eng.evaluator),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng
}

// Start creates a cleared calculator session.
func (e *Engine) Start(sessionID string) *domain.State {
	e.logger.Debug("session started", "session_id", sessionID)
	return domain.NewState(sessionID)
}

// Press applies a single key to the state.
func (e *Engine) Press(ctx context.Context, state *domain.State, key domain.Key) error {
	return e.machine.Press(ctx, state, key)
}

// PressAll applies keys in order and stops at the first invalid key.
func (e *Engine) PressAll(ctx context.Context, state *domain.State, keys []domain.Key) error {
	return e.machine.PressAll(ctx, state, keys)
}

// Input parses a line of key labels ("12+3 =", "90 sin", "mr") and applies them.
// Nothing is applied if the line contains an unknown label.
func (e *Engine) Input(ctx context.Context, state *domain.State, line string) error {
	keys, err := domain.ParseKeys(line)
	if err != nil {
		return err
	}
	return e.machine.PressAll(ctx, state, keys)
}

// Render returns the presentation snapshot of the state.
func (e *Engine) Render(state *domain.State) domain.View {
	return domain.Render(state)
}

// Evaluate computes a complete expression without a session.
// On success it returns the formatted result.
func (e *Engine) Evaluate(expression string) (string, domain.Result) {
	r := e.evaluator.Evaluate(expression)
	if !r.IsOk() {
		return "", r
	}
	return format.Result(r.Value), r
}

// Apply computes a scientific function of x without a session.
func (e *Engine) Apply(f domain.Function, x float64, mode domain.AngleMode) (string, domain.Result) {
	if !mode.Valid() {
		return "", domain.Fail(domain.SyntaxError, "unknown angle mode %q", mode)
	}
	r := runtime.ApplyFunction(f, x, mode)
	if !r.IsOk() {
		return "", r
	}
	return format.Result(r.Value), r
}

// ParseFunction resolves a function name or alias.
func ParseFunction(name string) (domain.Function, error) {
	f, ok := domain.LookupFunction(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown function %q", domain.ErrInvalidKey, name)
	}
	return f, nil
}
