package runner

import (
	"context"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
)

// RichResponse combines state and view for rich clients (Web, MCP, etc).
type RichResponse struct {
	State *domain.State `json:"state"`
	View  domain.View   `json:"view"`
}

// PressAndRender sanitizes a key line, applies it to a copy of the state and
// renders the result. The input state is left untouched, so a rejected line
// changes nothing.
func PressAndRender(ctx context.Context, engine *abacus.Engine, current *domain.State, line string) (*RichResponse, error) {
	clean, err := SanitizeInput(line)
	if err != nil {
		return nil, err
	}
	next := current.Snapshot()
	if err := engine.Input(ctx, next, clean); err != nil {
		return nil, err
	}
	return &RichResponse{State: next, View: engine.Render(next)}, nil
}
