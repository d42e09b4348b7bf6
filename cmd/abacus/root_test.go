package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/adapters/file"
	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "abacus version "+strings.TrimSpace(abacus.Version)+"\n", out)
}

func TestEvalCommand(t *testing.T) {
	out, err := execute(t, "eval", "2+3*4", "(1+2)^3")
	require.NoError(t, err)
	assert.Equal(t, "2+3*4 = 14\n(1+2)^3 = 27\n", out)

	out, err = execute(t, "eval", "1/0")
	assert.ErrorIs(t, err, cli.ErrCalculationFailed)
	assert.Equal(t, "1/0 = Math Error\n", out)
}

func TestFnCommand(t *testing.T) {
	out, err := execute(t, "fn", "cos", "60")
	require.NoError(t, err)
	assert.Equal(t, "cos(60) = 0.5\n", out)

	_, err = execute(t, "fn", "sin", "thirty")
	assert.Error(t, err)
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()
	state := domain.NewState("desk")
	state.Buffer.Text = "4"
	state.Memory.Value = 5
	require.NoError(t, file.New(dir).Save(context.Background(), "desk", state))

	out, err := execute(t, "session", "ls", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "- desk")

	out, err = execute(t, "session", "inspect", "desk", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"display": "4"`)

	_, err = execute(t, "session", "inspect", "missing", "--dir", dir)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	out, err = execute(t, "session", "rm", "--all", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'desk'")

	out, err = execute(t, "session", "ls", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved sessions found.")
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	state := domain.NewState("err")
	state.ErrorLabel = "Math Error"
	require.NoError(t, file.New(dir).Save(context.Background(), "err", state))

	out, err := execute(t, "graph", "--session", "err", "--dir", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stateDiagram-v2\n"), out)
	assert.Contains(t, out, "class error_display current")
}
