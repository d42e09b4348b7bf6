package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/abacus/internal/adapters/file"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/persistence/middleware"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runREPL(t *testing.T, opts REPLOptions, input string) string {
	t.Helper()
	var out bytes.Buffer
	err := RunREPL(context.Background(), opts, logging.NewNop(), strings.NewReader(input), &out)
	require.NoError(t, err)
	return out.String()
}

func lastView(t *testing.T, transcript string) domain.View {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	var v domain.View
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &v))
	return v
}

func TestRunREPL_JSONTranscript(t *testing.T) {
	input := strings.Join([]string{
		`"12+3="`,
		`["m+"]`,
		`1/0=`,
		`frobnicate`,
		`mr`,
	}, "\n") + "\n"

	out := runREPL(t, REPLOptions{JSON: true}, input)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "repl_json", []byte(out))
}

func TestRunREPL_ResumesSession(t *testing.T) {
	dir := t.TempDir()
	opts := REPLOptions{SessionID: "desk", SessionDir: dir, JSON: true}

	runREPL(t, opts, "5 m+\nac 2+2=\n")

	state, err := file.New(dir).Load(context.Background(), "desk")
	require.NoError(t, err)
	assert.Equal(t, 5.0, state.Memory.Value)
	assert.Equal(t, "4", state.Buffer.Text)

	t.Run("resume keeps memory", func(t *testing.T) {
		v := lastView(t, runREPL(t, opts, "mr\n"))
		assert.Equal(t, "5", v.Display)
		assert.Equal(t, "desk", v.SessionID)
	})

	t.Run("fresh discards the stored session", func(t *testing.T) {
		fresh := opts
		fresh.Fresh = true
		v := lastView(t, runREPL(t, fresh, "mr\n"))
		assert.Equal(t, "0", v.Display)
		assert.Equal(t, 0.0, v.Memory)
	})
}

func TestRunREPL_SealedSession(t *testing.T) {
	dir := t.TempDir()
	enc := &middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte{9}, middleware.KeySize)}
	opts := REPLOptions{SessionID: "vault", SessionDir: dir, JSON: true, Encryption: enc}

	runREPL(t, opts, "7 m+\n")

	raw, err := file.New(dir).Load(context.Background(), "vault")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Zero(t, raw.Memory.Value)

	v := lastView(t, runREPL(t, opts, "mr\n"))
	assert.Equal(t, "7", v.Display)
}

func TestRunREPL_InvalidSessionID(t *testing.T) {
	var out bytes.Buffer
	err := RunREPL(context.Background(), REPLOptions{SessionID: "../escape", SessionDir: t.TempDir(), JSON: true},
		logging.NewNop(), strings.NewReader("1\n"), &out)
	assert.ErrorIs(t, err, file.ErrInvalidSessionID)
}

func TestRunREPL_Text(t *testing.T) {
	dir := t.TempDir()
	out := runREPL(t, REPLOptions{SessionID: "text", SessionDir: dir}, "12+3=\nexit\n")

	assert.Contains(t, out, "scientific calculator")
	assert.Contains(t, out, "12+3 =")
	assert.Contains(t, out, "15")
	assert.Contains(t, out, ">>> Session 'text' saved.")
}
