package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// KeysRequest is the body of a key press. Keys are labels ("7", "+", "sin",
// "m+"); Input is a line of labels. Both may be given, keys first.
type KeysRequest struct {
	Keys  []string `json:"keys"`
	Input string   `json:"input"`
}

// EvaluateRequest is the body of a stateless evaluation.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is the outcome of a successful evaluation.
type EvaluateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Display    string  `json:"display"`
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var in EvaluateRequest
	if !s.decode(w, r, &in) {
		return
	}

	expr, err := runner.SanitizeInput(strings.TrimSpace(in.Expression))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var verr auth.ValidationError
	switch {
	case expr == "":
		verr.Add("expression", "is required")
	case utf8.RuneCountInString(expr) > history.MaxExpressionSize:
		verr.Add("expression", "must be at most %d characters", history.MaxExpressionSize)
	}
	if err := verr.Err(); err != nil {
		s.fail(w, r, err)
		return
	}

	display, res := s.engine.Evaluate(expr)
	if !res.IsOk() {
		writeError(w, http.StatusUnprocessableEntity, res.Kind.Label(), res.Cause)
		return
	}

	if s.recorder != nil {
		s.recorder.Record(domain.Operation{
			UserID:        user.ID,
			Expression:    expr,
			Result:        display,
			OperationType: domain.OpBasic,
		})
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Expression: expr, Result: res.Value, Display: display})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	state, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SessionOpened()
	writeJSON(w, http.StatusCreated, domain.Render(state))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	state, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Render(state))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(r.Context(), id, user.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SessionClosed()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Session deleted successfully",
		"sessionId": id,
	})
}

func (s *Server) pressKeys(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var in KeysRequest
	if !s.decode(w, r, &in) {
		return
	}

	line := strings.TrimSpace(strings.Join(append(in.Keys, in.Input), " "))
	if line == "" {
		var verr auth.ValidationError
		verr.Add("keys", "at least one key is required")
		s.fail(w, r, verr.Err())
		return
	}
	clean, err := runner.SanitizeInput(line)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	keys, err := domain.ParseKeys(clean)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	state, err := s.sessions.Press(r.Context(), chi.URLParam(r, "id"), user.ID, keys)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Render(state))
}

// subscribeSession streams the session's views as server-sent events,
// starting with the current one.
func (s *Server) subscribeSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	// Subscribe first so no view published after the load is missed.
	views, cancel := s.sessions.Subscribe(id)
	defer cancel()

	state, err := s.sessions.Get(r.Context(), id, user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if err := writeEvent(w, domain.Render(state)); err != nil {
		return
	}
	flusher.Flush()
	s.logger.Debug("SSE client connected", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", id)
			return
		case view, ok := <-views:
			if !ok {
				return
			}
			if err := writeEvent(w, view); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, view domain.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
