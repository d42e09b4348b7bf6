package runner

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptGuard_RearmAfterClear(t *testing.T) {
	g := NewInterruptGuard(context.Background())
	defer g.Stop()

	first := g.ReadContext()
	require.NoError(t, first.Err())

	g.Rearm()
	second := g.ReadContext()
	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, first.Err(), context.Canceled, "the cleared read is released")
	assert.NoError(t, second.Err())

	g.Stop()
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestInterruptGuard_CtrlCCancelsRead(t *testing.T) {
	g := NewInterruptGuard(context.Background())
	defer g.Stop()

	self, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	if err := self.Signal(os.Interrupt); err != nil {
		t.Skipf("cannot deliver an interrupt on this platform: %v", err)
	}

	select {
	case <-g.ReadContext().Done():
	case <-time.After(time.Second):
		t.Fatal("Ctrl+C did not cancel the pending read")
	}

	g.Rearm()
	assert.NoError(t, g.ReadContext().Err(), "the next Ctrl+C needs a live read context")
}

func TestInterruptGuard_AwaitInterruptIsBounded(t *testing.T) {
	g := NewInterruptGuard(context.Background())
	defer g.Stop()

	start := time.Now()
	g.AwaitInterrupt()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, interruptGrace)
	assert.Less(t, elapsed, 2*interruptGrace, "a plain EOF must not stall the REPL")
}

func TestInterruptGuard_SessionEndCancelsRead(t *testing.T) {
	session, cancel := context.WithCancel(context.Background())
	g := NewInterruptGuard(session)
	defer g.Stop()

	cancel()
	assert.ErrorIs(t, g.ReadContext().Err(), context.Canceled)

	start := time.Now()
	g.AwaitInterrupt()
	assert.Less(t, time.Since(start), interruptGrace)
}
