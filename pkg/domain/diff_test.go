package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	base := func() *State {
		s := NewState("sess-1")
		s.Buffer.Text = "12"
		return s
	}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		d := Diff(nil, base())
		if d == nil {
			t.Fatal("expected diff for initial load")
		}
		if d.Display == nil || *d.Display != "12" {
			t.Errorf("expected display 12, got %v", d.Display)
		}
		if d.Mode == nil || *d.Mode != StateNormal {
			t.Errorf("expected mode normal, got %v", d.Mode)
		}
	})

	t.Run("No Changes", func(t *testing.T) {
		if d := Diff(base(), base()); d != nil {
			t.Errorf("expected nil diff, got %+v", d)
		}
	})

	t.Run("Error Display", func(t *testing.T) {
		old := base()
		next := base()
		next.Buffer = Buffer{Text: DefaultBuffer, AwaitingFresh: true}
		next.ErrorLabel = SyntaxError.Label()

		d := Diff(old, next)
		if d == nil {
			t.Fatal("expected diff")
		}
		if *d.Display != "Syntax Error" {
			t.Errorf("expected error label on display, got %q", *d.Display)
		}
		if d.Error == nil || !*d.Error {
			t.Error("expected error flag")
		}
		if d.Memory != nil {
			t.Error("memory did not change and should be omitted")
		}
	})

	t.Run("Serialization omits unchanged fields", func(t *testing.T) {
		old := base()
		next := base()
		next.Memory.Value = 3
		b, err := json.Marshal(Diff(old, next))
		if err != nil {
			t.Fatal(err)
		}
		got := string(b)
		if !strings.Contains(got, `"memory":3`) {
			t.Errorf("expected memory in %s", got)
		}
		if strings.Contains(got, "display") {
			t.Errorf("display should be omitted in %s", got)
		}
	})
}

func TestState_Mode(t *testing.T) {
	s := NewState("x")
	if s.Mode() != StateNormal {
		t.Errorf("expected normal, got %s", s.Mode())
	}
	s.Buffer.AwaitingFresh = true
	if s.Mode() != StateAwaitingFresh {
		t.Errorf("expected awaiting_fresh, got %s", s.Mode())
	}
	s.ErrorLabel = "Math Error"
	if s.Mode() != StateErrorDisplay {
		t.Errorf("expected error_display, got %s", s.Mode())
	}
	if s.Display() != "Math Error" || s.CurrentInput() != "0" {
		t.Errorf("unexpected display/input: %q/%q", s.Display(), s.CurrentInput())
	}
	if !s.Settle() || s.Settle() {
		t.Error("Settle should report a change exactly once")
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	if p.TotalPages != 3 || !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("unexpected pagination: %+v", p)
	}
	p = NewPagination(1, 50, 0)
	if p.TotalPages != 0 || p.HasNextPage || p.HasPrevPage {
		t.Errorf("unexpected empty pagination: %+v", p)
	}
}
