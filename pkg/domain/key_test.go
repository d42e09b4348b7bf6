package domain

import (
	"errors"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		label string
		want  Key
	}{
		{"7", Digit("7")},
		{"+", Operator("+")},
		{"×", Operator("×")},
		{"(", Operator("(")},
		{".", Command(KeyDecimal)},
		{"=", Command(KeyEvaluate)},
		{"Enter", Command(KeyEvaluate)},
		{"Escape", Command(KeyClearAll)},
		{"AC", Command(KeyClearAll)},
		{"CE", Command(KeyClearEntry)},
		{"Backspace", Command(KeyDelete)},
		{"+/-", Command(KeyToggleSign)},
		{"M+", Command(KeyMemoryAdd)},
		{"m-", Command(KeyMemorySubtract)},
		{"MR", Command(KeyMemoryRecall)},
		{"pi", Key{Kind: KeyConstant, Value: "pi"}},
		{"e", Key{Kind: KeyConstant, Value: "e"}},
		{"SIN", Fn(FuncSin)},
		{"log10", Fn(FuncLog10)},
		{"10^x", Fn(FuncPow10)},
		{"factorial", Fn(FuncFact)},
		{"RAD", Key{Kind: KeyAngleMode, Value: "rad"}},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseKey(tt.label)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "12", "foo", "%"} {
		if _, err := ParseKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ParseKey(%q) expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys("12+3= sin M+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Key{
		Digit("1"), Digit("2"), Operator("+"), Digit("3"), Command(KeyEvaluate),
		Fn(FuncSin), Command(KeyMemoryAdd),
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(keys), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %v, want %v", i, keys[i], want[i])
		}
	}

	if _, err := ParseKeys("2 + bogus"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestFunction_Category(t *testing.T) {
	cases := map[Function]OperationType{
		FuncSin:   OpTrigonometric,
		FuncAtan:  OpTrigonometric,
		FuncLn:    OpLogarithmic,
		FuncLog10: OpLogarithmic,
		FuncExp:   OpExponential,
		FuncPow10: OpExponential,
		FuncSqrt:  OpScientific,
		FuncFact:  OpScientific,
	}
	for f, want := range cases {
		if got := f.Category(); got != want {
			t.Errorf("%s.Category() = %s, want %s", f, got, want)
		}
	}
}
