package domain

import "strings"

// InputState is the derived mode of the input state machine.
type InputState string

const (
	StateNormal        InputState = "normal"         // Digits extend the buffer
	StateAwaitingFresh InputState = "awaiting_fresh" // Next digit replaces the buffer
	StateErrorDisplay  InputState = "error_display"  // Display shows an error label
)

// AngleMode determines how trigonometric functions interpret and produce angles.
type AngleMode string

const (
	Degrees AngleMode = "deg"
	Radians AngleMode = "rad"
)

// Valid reports whether m is a known angle mode.
func (m AngleMode) Valid() bool {
	return m == Degrees || m == Radians
}

// DefaultBuffer is the content of a cleared buffer.
const DefaultBuffer = "0"

// Buffer is the accumulated, not-yet-evaluated expression.
type Buffer struct {
	// Text is never empty; a cleared buffer reads "0".
	Text string `json:"text"`

	// AwaitingFresh is set after a result, a constant or an error.
	// The next digit replaces Text instead of extending it.
	AwaitingFresh bool `json:"awaiting_fresh"`
}

// IsZero reports whether the buffer holds the cleared value.
func (b Buffer) IsZero() bool {
	return b.Text == DefaultBuffer
}

// BufferAlphabet lists every character the input grammar can put in a buffer.
const BufferAlphabet = "0123456789.+-*/^()e"

// Valid reports whether Text is non-empty and uses only BufferAlphabet.
func (b Buffer) Valid() bool {
	if b.Text == "" {
		return false
	}
	for _, r := range b.Text {
		if !strings.ContainsRune(BufferAlphabet, r) {
			return false
		}
	}
	return true
}

// Memory is the single accumulator register. Only memory keys mutate it.
type Memory struct {
	Value float64 `json:"value"`
}

// State is the snapshot of one calculator session.
type State struct {
	SessionID string `json:"session_id,omitempty"`

	// Owner is the user ID the session belongs to (0 for anonymous/local sessions).
	Owner int64 `json:"owner,omitempty"`

	Buffer    Buffer    `json:"buffer"`
	Memory    Memory    `json:"memory"`
	AngleMode AngleMode `json:"angle_mode"`

	// Annotation is the history line surfaced above the display, e.g. "5+3 =".
	Annotation string `json:"annotation,omitempty"`

	// ErrorLabel is non-empty while the display shows an error.
	// The logical buffer is already reset when it is set.
	ErrorLabel string `json:"error_label,omitempty"`

	// Notice is a transient message (memory feedback). Cleared by the next key.
	Notice string `json:"notice,omitempty"`

	// Sealed holds the encrypted snapshot when a store seals states at rest.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewState creates a cleared session in degree mode.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Buffer:    Buffer{Text: DefaultBuffer},
		AngleMode: Degrees,
	}
}

// Mode derives the state machine mode from the snapshot.
func (s *State) Mode() InputState {
	switch {
	case s.ErrorLabel != "":
		return StateErrorDisplay
	case s.Buffer.AwaitingFresh:
		return StateAwaitingFresh
	default:
		return StateNormal
	}
}

// CurrentInput returns the logical buffer content. During an error display
// this is already "0".
func (s *State) CurrentInput() string {
	return s.Buffer.Text
}

// Display returns what the presentation layer should show on the main display.
func (s *State) Display() string {
	if s.ErrorLabel != "" {
		return s.ErrorLabel
	}
	return s.Buffer.Text
}

// Settle ends an error display. It returns true if the display changed.
func (s *State) Settle() bool {
	if s.ErrorLabel == "" {
		return false
	}
	s.ErrorLabel = ""
	return true
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() *State {
	c := *s
	return &c
}
