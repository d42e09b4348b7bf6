package domain

// View is the rendered snapshot of a session handed to presentation adapters.
type View struct {
	SessionID  string     `json:"session_id"`
	Display    string     `json:"display"`
	Input      string     `json:"input"`
	Mode       InputState `json:"mode"`
	AngleMode  AngleMode  `json:"angle_mode"`
	Memory     float64    `json:"memory"`
	Annotation string     `json:"annotation,omitempty"`
	Notice     string     `json:"notice,omitempty"`
	Error      bool       `json:"error"`
}

// Render builds the view of a state.
func Render(s *State) View {
	return View{
		SessionID:  s.SessionID,
		Display:    s.Display(),
		Input:      s.CurrentInput(),
		Mode:       s.Mode(),
		AngleMode:  s.AngleMode,
		Memory:     s.Memory.Value,
		Annotation: s.Annotation,
		Notice:     s.Notice,
		Error:      s.ErrorLabel != "",
	}
}

// ViewDiff represents the changes between two views.
// It is serialized to JSON for partial updates on streaming clients.
type ViewDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Display    *string     `json:"display,omitempty"`
	Mode       *InputState `json:"mode,omitempty"`
	AngleMode  *AngleMode  `json:"angle_mode,omitempty"`
	Memory     *float64    `json:"memory,omitempty"`
	Annotation *string     `json:"annotation,omitempty"`
	Notice     *string     `json:"notice,omitempty"`
	Error      *bool       `json:"error,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing visible changed.
func Diff(oldState, newState *State) *ViewDiff {
	if newState == nil {
		return nil
	}
	n := Render(newState)
	diff := &ViewDiff{SessionID: n.SessionID}

	var o *View
	if oldState != nil {
		v := Render(oldState)
		o = &v
	}

	changed := false
	if o == nil || o.Display != n.Display {
		diff.Display = &n.Display
		changed = true
	}
	if o == nil || o.Mode != n.Mode {
		diff.Mode = &n.Mode
		changed = true
	}
	if o == nil || o.AngleMode != n.AngleMode {
		diff.AngleMode = &n.AngleMode
		changed = true
	}
	if o == nil || o.Memory != n.Memory {
		diff.Memory = &n.Memory
		changed = true
	}
	if o == nil || o.Annotation != n.Annotation {
		diff.Annotation = &n.Annotation
		changed = true
	}
	if o == nil || o.Notice != n.Notice {
		diff.Notice = &n.Notice
		changed = true
	}
	if o == nil || o.Error != n.Error {
		diff.Error = &n.Error
		changed = true
	}

	if !changed {
		return nil
	}
	return diff
}
