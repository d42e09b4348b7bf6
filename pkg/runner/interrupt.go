package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long a failed read waits for the Ctrl+C that caused it.
const interruptGrace = 100 * time.Millisecond

// InterruptGuard turns Ctrl+C into a cancelled read context for the REPL.
// The first interrupt on a dirty display clears the entry and the guard is
// re-armed; an interrupt on a cleared display ends the session. SIGTERM
// cancels the read the same way.
type InterruptGuard struct {
	session context.Context
	read    context.Context
	disarm  context.CancelFunc
}

// NewInterruptGuard arms a guard for one REPL session. Ending session
// also cancels the pending read.
func NewInterruptGuard(session context.Context) *InterruptGuard {
	g := &InterruptGuard{session: session}
	g.Rearm()
	return g
}

// ReadContext is the context the next line read must honour.
func (g *InterruptGuard) ReadContext() context.Context {
	return g.read
}

// Rearm starts a fresh read context once an interrupt cleared the entry,
// so the next Ctrl+C is caught too.
func (g *InterruptGuard) Rearm() {
	if g.disarm != nil {
		g.disarm()
	}
	g.read, g.disarm = signal.NotifyContext(g.session, os.Interrupt, syscall.SIGTERM)
}

// Stop releases the signal handler; Ctrl+C reverts to killing the process.
func (g *InterruptGuard) Stop() {
	if g.disarm != nil {
		g.disarm()
	}
}

// AwaitInterrupt gives a failed read a short grace period to be explained by
// Ctrl+C. Some consoles report EOF a moment before the signal arrives.
func (g *InterruptGuard) AwaitInterrupt() {
	if g.read.Err() != nil {
		return
	}
	select {
	case <-g.read.Done():
	case <-time.After(interruptGrace):
	}
}
