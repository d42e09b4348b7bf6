package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain key line", "12+3 =", "12+3 ="},
		{"unicode labels kept", "2 × π ÷ 4", "2 × π ÷ 4"},
		{"tabs and breaks become spaces", "5\t+\r\n3", "5 + 3"},
		{"ansi escape dropped", "\x1b[31m7\x1b[0m", "[31m7[0m"},
		{"nul and bell dropped", "9\x00\a", "9"},
		{"decomposed accent composed", "é", "é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_Rejects(t *testing.T) {
	_, err := SanitizeInput("1+\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = SanitizeInput(strings.Repeat("1", DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = SanitizeInput(strings.Repeat("1", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestSanitizeInput_EnvLimit(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "4")
	_, err := SanitizeInput("12345")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	t.Setenv(EnvMaxInputSize, "not-a-number")
	_, err = SanitizeInput("12345")
	assert.NoError(t, err)
}
