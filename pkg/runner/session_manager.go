package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

// SessionManager handles the lifecycle of a durable REPL session.
// It coordinates between the Runner, the Engine, and the StateStore.
type SessionManager struct {
	Store ports.StateStore
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store ports.StateStore) *SessionManager {
	return &SessionManager{
		Store: store,
	}
}

// LoadOrStart attempts to load an existing session. If not found, it starts a new one.
// Returns the state and a boolean indicating if it was loaded (true) or new (false).
func (sm *SessionManager) LoadOrStart(
	ctx context.Context,
	engine *abacus.Engine,
	sessionID string,
) (*domain.State, bool, error) {
	if sessionID == "" {
		return engine.Start(DefaultSessionID), false, nil
	}

	state, err := sm.Store.Load(ctx, sessionID)
	if err == nil {
		// A stored error display is stale once the process that showed it is gone.
		state.Settle()
		state.Notice = ""
		return state, true, nil
	}

	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	state = engine.Start(sessionID)

	// Save immediately to reserve the ID
	if err := sm.Store.Save(ctx, sessionID, state); err != nil {
		return nil, false, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}

	return state, false, nil
}

// Save persists the state.
func (sm *SessionManager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if sessionID == "" || sm.Store == nil {
		return nil
	}
	return sm.Store.Save(ctx, sessionID, state)
}
