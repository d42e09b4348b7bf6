package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWith(t *testing.T, input string, opts ...Option) (*Runner, string) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{WithInputHandler(NewTextHandler(strings.NewReader(input), out))}, opts...)
	r := NewRunner(opts...)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
	}
	return r, out.String()
}

func TestRunner_Run_BasicFlow(t *testing.T) {
	r, out := runWith(t, "12+3=\n*2=\n")

	assert.Equal(t, "0\n12+3 =\n15\n15*2 =\n30\n", out)
	assert.Equal(t, "30", r.State().Display())
}

func TestRunner_Run_ExitStopsReading(t *testing.T) {
	r, out := runWith(t, "7\nexit\n8\n")
	assert.NotContains(t, out, "78")
	assert.Equal(t, "7", r.State().Display())
}

func TestRunner_Run_InvalidKeyIsReported(t *testing.T) {
	r, out := runWith(t, "2 bogus\n")
	assert.Contains(t, out, "Error: invalid key")
	assert.Equal(t, "0", r.State().Display(), "a rejected line applies nothing")
}

func TestRunner_Run_Help(t *testing.T) {
	_, out := runWith(t, "help\n")
	assert.Contains(t, out, "| `mc mr m+ m-` | memory |")
}

func TestRunner_Run_ErrorThenRecovery(t *testing.T) {
	r, out := runWith(t, "1/0=\n7\n")
	assert.Contains(t, out, "Math Error")
	assert.Equal(t, "7", r.State().Display())
}

func TestRunner_Run_ResumesSession(t *testing.T) {
	store := memory.NewStore()
	engine := abacus.New()

	runWith(t, "5 m+\nac 2+2=\n", WithStore(store), WithSessionID("desk"), WithEngine(engine))
	r, out := runWith(t, "mr\n", WithStore(store), WithSessionID("desk"), WithEngine(engine))

	assert.True(t, strings.HasPrefix(out, "2+2 =\n4  [M]\n"), "resumed view is shown first, got %q", out)
	assert.Equal(t, "5", r.State().Display())

	saved, err := store.Load(context.Background(), "desk")
	require.NoError(t, err)
	assert.Equal(t, 5.0, saved.Memory.Value)
}

func TestRunner_Run_InitialState(t *testing.T) {
	state := domain.NewState("given")
	state.Buffer = domain.Buffer{Text: "9"}
	r, _ := runWith(t, "+1=\n", WithInitialState(state))
	assert.Equal(t, "10", r.State().Display())
}

func TestRunner_Run_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewRunner(WithInputHandler(NewTextHandler(pr, &bytes.Buffer{})))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Runner ignored cancellation")
	}
}

func TestPressAndRender(t *testing.T) {
	engine := abacus.New()
	state := engine.Start("s")

	resp, err := PressAndRender(context.Background(), engine, state, "6*7=")
	require.NoError(t, err)
	assert.Equal(t, "42", resp.View.Display)
	assert.Equal(t, "0", state.Display(), "input state is not mutated")

	_, err = PressAndRender(context.Background(), engine, state, "6 nope")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestSessionManager_LoadOrStartSettlesStaleError(t *testing.T) {
	store := memory.NewStore()
	stale := domain.NewState("x")
	stale.ErrorLabel = "Math Error"
	stale.Notice = "Memory cleared"
	require.NoError(t, store.Save(context.Background(), "x", stale))

	state, resumed, err := NewSessionManager(store).LoadOrStart(context.Background(), abacus.New(), "x")
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Empty(t, state.ErrorLabel)
	assert.Empty(t, state.Notice)
}
