package domain

import (
	"fmt"
	"strings"
)

// KeyKind identifies the semantic operation a key press triggers.
type KeyKind string

const (
	KeyDigit          KeyKind = "digit"
	KeyOperator       KeyKind = "operator"
	KeyDecimal        KeyKind = "decimal"
	KeyClearAll       KeyKind = "clear_all"
	KeyClearEntry     KeyKind = "clear_entry"
	KeyDelete         KeyKind = "delete"
	KeyToggleSign     KeyKind = "toggle_sign"
	KeyConstant       KeyKind = "constant"
	KeyFunction       KeyKind = "function"
	KeyEvaluate       KeyKind = "evaluate"
	KeyMemoryClear    KeyKind = "memory_clear"
	KeyMemoryRecall   KeyKind = "memory_recall"
	KeyMemoryAdd      KeyKind = "memory_add"
	KeyMemorySubtract KeyKind = "memory_subtract"
	KeyAngleMode      KeyKind = "angle_mode"
)

// Key is one discrete input event.
type Key struct {
	Kind  KeyKind `json:"kind"`
	Value string  `json:"value,omitempty"`
}

func (k Key) String() string {
	if k.Value == "" {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s(%s)", k.Kind, k.Value)
}

// Digit builds a digit key.
func Digit(d string) Key { return Key{Kind: KeyDigit, Value: d} }

// Operator builds an operator key.
func Operator(op string) Key { return Key{Kind: KeyOperator, Value: op} }

// Command builds a key that carries no payload.
func Command(kind KeyKind) Key { return Key{Kind: kind} }

// Fn builds a scientific function key.
func Fn(f Function) Key { return Key{Kind: KeyFunction, Value: string(f)} }

// keySymbols maps button labels and keyboard names to keys.
// Lookup is case-insensitive.
var keySymbols = map[string]Key{
	".":         Command(KeyDecimal),
	"=":         Command(KeyEvaluate),
	"enter":     Command(KeyEvaluate),
	"ac":        Command(KeyClearAll),
	"escape":    Command(KeyClearAll),
	"ce":        Command(KeyClearEntry),
	"del":       Command(KeyDelete),
	"backspace": Command(KeyDelete),
	"+/-":       Command(KeyToggleSign),
	"±":         Command(KeyToggleSign),
	"neg":       Command(KeyToggleSign),
	"mc":        Command(KeyMemoryClear),
	"mr":        Command(KeyMemoryRecall),
	"m+":        Command(KeyMemoryAdd),
	"m-":        Command(KeyMemorySubtract),
	"pi":        {Kind: KeyConstant, Value: string(ConstPi)},
	"π":         {Kind: KeyConstant, Value: string(ConstPi)},
	"e":         {Kind: KeyConstant, Value: string(ConstE)},
	"deg":       {Kind: KeyAngleMode, Value: string(Degrees)},
	"rad":       {Kind: KeyAngleMode, Value: string(Radians)},
}

// operatorSymbols are the characters accepted by the operator key.
// "×" and "÷" are presentation symbols mapped to the grammar by the machine.
const operatorSymbols = "+-*/^()×÷"

// ParseKey resolves a single key label ("7", "+", "sin", "M+", "Enter").
func ParseKey(label string) (Key, error) {
	if label == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(label) == 1 && label[0] >= '0' && label[0] <= '9' {
		return Digit(label), nil
	}
	if strings.Contains(operatorSymbols, label) && len([]rune(label)) == 1 {
		return Operator(label), nil
	}
	lower := strings.ToLower(label)
	if k, ok := keySymbols[lower]; ok {
		return k, nil
	}
	if f, ok := LookupFunction(lower); ok {
		return Fn(f), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, label)
}

// ParseKeys splits a line of input into keys. Whitespace separates labels;
// a label made only of digits, operators, "." and "=" is exploded into one key
// per character, so "12+3=" is five keys.
func ParseKeys(line string) ([]Key, error) {
	var keys []Key
	for _, field := range strings.Fields(line) {
		if k, err := ParseKey(field); err == nil {
			keys = append(keys, k)
			continue
		}
		if !isKeyRun(field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, field)
		}
		for _, r := range field {
			k, err := ParseKey(string(r))
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func isKeyRun(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '=' && !strings.ContainsRune(operatorSymbols, r) {
			return false
		}
	}
	return true
}
