package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/google/uuid"
)

const (
	// DefaultErrorDwell is how long an error label stays on the display.
	DefaultErrorDwell = 2 * time.Second

	defaultLockTTL = 30 * time.Second
	settleTimeout  = 5 * time.Second
)

// Engine is the part of the calculator engine the manager drives.
type Engine interface {
	Start(sessionID string) *domain.State
	PressAll(ctx context.Context, state *domain.State, keys []domain.Key) error
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// dwell is a pending settle of one error display.
type dwell struct {
	timer *time.Timer
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.StateStore
	engine Engine

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	timerMu sync.Mutex
	timers  map[string]*dwell
	dwell   time.Duration

	streams *Streams
	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithErrorDwell sets how long error labels stay visible.
// Zero keeps the label until the next key.
func WithErrorDwell(d time.Duration) Option {
	return func(m *Manager) {
		m.dwell = d
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager over a persistence store.
func NewManager(store ports.StateStore, engine Engine, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		engine:  engine,
		locks:   make(map[string]*lockEntry),
		timers:  make(map[string]*dwell),
		dwell:   DefaultErrorDwell,
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.streams = NewStreams(m.logger)
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new session owned by owner (0 for anonymous) and persists it.
func (m *Manager) Create(ctx context.Context, owner int64) (*domain.State, error) {
	id := uuid.NewString()
	state := m.engine.Start(id)
	state.Owner = owner
	if err := m.Save(ctx, id, state); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Debug("session created", "session_id", id, "owner", owner)
	return state, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Get loads a session and checks that it belongs to owner.
func (m *Manager) Get(ctx context.Context, sessionID string, owner int64) (*domain.State, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Owner != owner {
		return nil, domain.ErrSessionForbidden
	}
	return state, nil
}

// LoadOrStart tries to load a session. If not found, it initializes a new one.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		state = m.engine.Start(sessionID)

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return state, err
}

// Press applies keys to a session owned by owner, persists the result and
// publishes the new view. Either every key is applied or none is.
func (m *Manager) Press(ctx context.Context, sessionID string, owner int64, keys []domain.Key) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if current.Owner != owner {
			return domain.ErrSessionForbidden
		}

		next := current.Snapshot()
		if err := m.engine.PressAll(ctx, next, keys); err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if next.ErrorLabel != "" {
			m.scheduleSettle(sessionID)
		} else {
			m.cancelSettle(sessionID)
		}
		m.publish(current, next)
		state = next
		return nil
	})
	return state, err
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes the session, its pending timer and its subscribers.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.cancelSettle(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}
	m.streams.Close(sessionID)
	return nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Subscribe streams the views of a session after each visible change.
func (m *Manager) Subscribe(sessionID string) (<-chan domain.View, func()) {
	return m.streams.Subscribe(sessionID)
}

// Close stops every pending error dwell.
func (m *Manager) Close() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	for id, d := range m.timers {
		d.timer.Stop()
		delete(m.timers, id)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) publish(oldState, newState *domain.State) {
	if domain.Diff(oldState, newState) == nil {
		return
	}
	m.streams.Broadcast(newState.SessionID, domain.Render(newState))
}

// scheduleSettle replaces any pending dwell of the session.
func (m *Manager) scheduleSettle(sessionID string) {
	if m.dwell <= 0 {
		return
	}
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if old, ok := m.timers[sessionID]; ok {
		old.timer.Stop()
	}
	d := &dwell{}
	d.timer = time.AfterFunc(m.dwell, func() { m.settle(sessionID, d) })
	m.timers[sessionID] = d
}

func (m *Manager) cancelSettle(sessionID string) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if d, ok := m.timers[sessionID]; ok {
		d.timer.Stop()
		delete(m.timers, sessionID)
	}
}

// settle ends the error display if d is still the session's pending dwell.
func (m *Manager) settle(sessionID string, d *dwell) {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.timerMu.Lock()
		current := m.timers[sessionID] == d
		if current {
			delete(m.timers, sessionID)
		}
		m.timerMu.Unlock()
		if !current {
			return nil
		}

		state, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		before := state.Snapshot()
		if !state.Settle() {
			return nil
		}
		if err := m.store.Save(ctx, sessionID, state); err != nil {
			return err
		}
		m.publish(before, state)
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.logger.Warn("failed to settle error display", "session_id", sessionID, "err", err)
	}
}
