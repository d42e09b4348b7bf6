package runner

import (
	"context"

	"github.com/aretw0/abacus/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the current view of the calculator.
	Output(ctx context.Context, view domain.View) error

	// Input reads one line of key labels from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (help, rejected input).
	// This is distinct from view rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// ViewFormatter turns a view into the text printed after each line.
type ViewFormatter func(domain.View) string
