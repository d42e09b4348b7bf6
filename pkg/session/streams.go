package session

import (
	"log/slog"
	"sync"

	"github.com/aretw0/abacus/pkg/domain"
)

// streamBuffer is the number of views queued per subscriber before drops.
const streamBuffer = 10

// Streams fans out rendered views to the subscribers of each session.
type Streams struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.View]struct{}
	logger      *slog.Logger
}

// NewStreams creates an empty fan-out.
func NewStreams(logger *slog.Logger) *Streams {
	return &Streams{
		subscribers: make(map[string]map[chan domain.View]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber. The returned cancel func is idempotent.
func (sm *Streams) Subscribe(sessionID string) (<-chan domain.View, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.View, streamBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan domain.View]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends a view to every subscriber of the session.
// Slow subscribers with a full buffer miss the view.
func (sm *Streams) Broadcast(sessionID string, view domain.View) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- view:
		default:
			sm.logger.Warn("subscriber buffer full, dropping view", "session_id", sessionID)
		}
	}
}

// Close disconnects every subscriber of the session.
func (sm *Streams) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

// Count returns the number of subscribers of the session.
func (sm *Streams) Count(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}
