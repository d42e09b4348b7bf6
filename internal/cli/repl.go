package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"syscall"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/adapters/file"
	"github.com/aretw0/abacus/internal/presentation/tui"
	"github.com/aretw0/abacus/pkg/persistence/middleware"
	"github.com/aretw0/abacus/pkg/runner"
)

// REPLOptions contains the configuration of the interactive calculator.
type REPLOptions struct {
	// SessionID enables persistence: the session is resumed from and saved
	// to SessionDir after every line.
	SessionID  string
	SessionDir string
	// Fresh discards the stored session before starting.
	Fresh bool
	// JSON switches to JSON Lines IO.
	JSON bool
	// Encryption seals the saved session when set.
	Encryption *middleware.EncryptionConfig
}

// RunREPL runs the interactive calculator on in and out until the input
// ends, the user exits or SIGTERM arrives. Ctrl+C is handled by the runner.
func RunREPL(ctx context.Context, opts REPLOptions, logger *slog.Logger, in io.Reader, out io.Writer) error {
	sigCtx := NewSignalContext(ctx, syscall.SIGTERM)
	defer sigCtx.Cancel()

	engine := abacus.New(
		abacus.WithLogger(logger),
		abacus.WithLifecycleHooks(createDebugHooks(logger)),
	)
	runnerOpts := []runner.Option{
		runner.WithEngine(engine),
		runner.WithLogger(logger),
	}

	if opts.SessionID != "" {
		store := SealStore(file.New(opts.SessionDir), opts.Encryption)
		if opts.Fresh {
			if err := store.Delete(sigCtx, opts.SessionID); err != nil {
				return fmt.Errorf("failed to reset session: %w", err)
			}
			logger.Info("session reset", "session_id", opts.SessionID)
		}
		runnerOpts = append(runnerOpts,
			runner.WithSessionID(opts.SessionID),
			runner.WithStore(store),
		)
	}

	if opts.JSON {
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	} else {
		tui.PrintBanner(out, abacus.Version)
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewTextHandler(in, out,
			runner.WithTextHandlerRenderer(tui.NewRenderer()),
			runner.WithTextHandlerFormatter(tui.NewViewFormatter(out)),
		)))
	}

	r := runner.NewRunner(runnerOpts...)
	if err := r.Run(sigCtx); err != nil {
		return err
	}

	if opts.JSON {
		return nil
	}
	if sigCtx.Signal() != nil {
		fmt.Fprintln(out)
		printSystemMessage(out, "Terminated.")
	}
	if opts.SessionID != "" {
		printSystemMessage(out, "Session '%s' saved.", opts.SessionID)
	}
	return nil
}
