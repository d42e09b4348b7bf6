package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// nopStore accepts every write and finds nothing.
type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return nil
}
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

type nopEngine struct{}

func (nopEngine) Start(id string) *domain.State { return domain.NewState(id) }
func (nopEngine) PressAll(context.Context, *domain.State, []domain.Key) error {
	return nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{}, nopEngine{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.State{})
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

func TestManager_StaleDwellIsIgnored(t *testing.T) {
	mgr := NewManager(nopStore{}, nopEngine{}, WithErrorDwell(time.Hour))
	defer mgr.Close()

	mgr.scheduleSettle("s1")
	stale := mgr.timers["s1"]
	mgr.scheduleSettle("s1")

	// A superseded dwell must not consume the pending one.
	mgr.settle("s1", stale)
	if _, ok := mgr.timers["s1"]; !ok {
		t.Fatal("pending dwell was removed by a stale timer")
	}
}
