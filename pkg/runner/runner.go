package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

// DefaultSessionID labels sessions started without an explicit ID.
const DefaultSessionID = "local"

// HelpText is shown by the "help" command.
const HelpText = "# Abacus\n\n" +
	"Type keys separated by spaces. Runs of digits and operators may be joined: `12+3=`.\n\n" +
	"| Keys | Meaning |\n" +
	"|---|---|\n" +
	"| `0-9` `.` | digits and decimal point |\n" +
	"| `+ - * / ^ ( )` `×` `÷` | operators |\n" +
	"| `=` `enter` | evaluate |\n" +
	"| `ac` `ce` `del` `+/-` | clear all, clear entry, delete, toggle sign |\n" +
	"| `sin cos tan asin acos atan` | trigonometry on the whole display |\n" +
	"| `ln log exp 10^x sqrt n!` | scientific functions |\n" +
	"| `pi` `e` | constants |\n" +
	"| `mc mr m+ m-` | memory |\n" +
	"| `deg` `rad` | angle mode |\n\n" +
	"`help` shows this table, `exit` or `quit` leaves. Ctrl+C clears the display, twice exits.\n"

// Runner handles the interactive loop of the calculator engine using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	Store     ports.StateStore
	SessionID string

	engine       *abacus.Engine
	initialState *domain.State
	state        *domain.State
}

// NewRunner creates a Runner. Defaults: a new engine, a text handler on
// Stdin/Stdout and a no-op logger.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = abacus.New()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.SessionID == "" {
		r.SessionID = DefaultSessionID
	}
	return r
}

// State returns the session state after Run returns.
func (r *Runner) State() *domain.State {
	return r.state
}

// Run executes the loop until the input ends, the user exits or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	state, err := r.resolveInitialState(ctx)
	if err != nil {
		return err
	}
	r.state = state

	guard := NewInterruptGuard(ctx)
	defer guard.Stop()

	handler := r.Handler
	if err := handler.Output(ctx, domain.Render(state)); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	for {
		inputCtx := guard.ReadContext()
		line, err := handler.Input(inputCtx)
		if err != nil {
			guard.AwaitInterrupt()
			if ctx.Err() != nil {
				return nil
			}
			if inputCtx.Err() != nil {
				exit, err := r.interrupt(ctx, state)
				if err != nil || exit {
					return err
				}
				guard.Rearm()
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help", "?":
			if err := handler.SystemOutput(ctx, HelpText); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}

		if err := r.engine.Input(ctx, state, line); err != nil {
			if errors.Is(err, domain.ErrInvalidKey) {
				r.Logger.Debug("input rejected", "line", line, "err", err)
				if err := handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Type help for the key list.", err)); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return err
		}

		if err := r.saveState(ctx, state); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		if err := handler.Output(ctx, domain.Render(state)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// interrupt handles Ctrl+C: a dirty display is cleared, a clear one exits.
func (r *Runner) interrupt(ctx context.Context, state *domain.State) (bool, error) {
	if state.Buffer.IsZero() && state.Annotation == "" && state.ErrorLabel == "" {
		return true, nil
	}
	r.Logger.Debug("interrupt: clearing display", "session_id", r.SessionID)
	if err := r.engine.Press(ctx, state, domain.Command(domain.KeyClearAll)); err != nil {
		return false, err
	}
	if err := r.saveState(ctx, state); err != nil {
		return false, err
	}
	return false, r.Handler.Output(ctx, domain.Render(state))
}

func (r *Runner) saveState(ctx context.Context, state *domain.State) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.Save(ctx, r.SessionID, state); err != nil {
		return err
	}
	r.Logger.Debug("state saved", "session_id", r.SessionID, "display", state.Display())
	return nil
}

func (r *Runner) resolveInitialState(ctx context.Context) (*domain.State, error) {
	if r.initialState != nil {
		return r.initialState, nil
	}
	if r.Store == nil {
		return r.engine.Start(r.SessionID), nil
	}
	state, resumed, err := NewSessionManager(r.Store).LoadOrStart(ctx, r.engine, r.SessionID)
	if err != nil {
		return nil, err
	}
	if resumed {
		r.Logger.Info("session resumed", "session_id", r.SessionID)
	}
	return state, nil
}
