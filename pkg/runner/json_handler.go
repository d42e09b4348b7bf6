package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/abacus/pkg/domain"
)

// SystemMessage is the JSON line emitted by SystemOutput.
type SystemMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each view is written as one JSON object. Each input line is either a JSON
// string ("12+3="), a JSON array of key labels (["12", "+", "3", "="]) or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view domain.View) error {
	return h.Encoder.Encode(view)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	} else {
		var labels []string
		if err := json.Unmarshal([]byte(text), &labels); err == nil {
			text = strings.Join(labels, " ")
		}
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(SystemMessage{Type: "system", Message: msg})
}
