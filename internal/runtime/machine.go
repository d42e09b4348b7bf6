package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
)

// Memory notices surfaced to the presentation layer.
const (
	NoticeMemoryCleared    = "Memory cleared"
	NoticeMemoryAdded      = "Added to memory"
	NoticeMemorySubtracted = "Subtracted from memory"
	NoticeMemoryUnchanged  = "Memory unchanged: input is not a number"
)

// tokenBreaks are the characters that end a numeric token.
const tokenBreaks = "+-*/^()"

// Machine is the input state machine. It mutates a *domain.State in place
// and holds no session state of its own, so one Machine serves any number of
// sessions as long as each session is driven by one goroutine at a time.
type Machine struct {
	evaluator Evaluator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Machine.
type Option func(*Machine)

// WithEvaluator replaces the expression evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(m *Machine) {
		m.evaluator = e
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine creates a state machine backed by the govaluate evaluator.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		evaluator: NewGovalEvaluator(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Press dispatches one key to the matching operation.
func (m *Machine) Press(ctx context.Context, s *domain.State, k domain.Key) error {
	m.logger.Debug("key pressed", "session_id", s.SessionID, "key", k.String(), "mode", s.Mode())

	switch k.Kind {
	case domain.KeyDigit:
		return m.InputDigit(s, k.Value)
	case domain.KeyOperator:
		return m.InputOperator(s, k.Value)
	case domain.KeyDecimal:
		m.InputDecimal(s)
	case domain.KeyClearAll:
		m.ClearAll(s)
	case domain.KeyClearEntry:
		m.ClearEntry(s)
	case domain.KeyDelete:
		m.DeleteLast(s)
	case domain.KeyToggleSign:
		m.ToggleSign(s)
	case domain.KeyConstant:
		return m.InsertConstant(s, domain.Constant(k.Value))
	case domain.KeyFunction:
		f, ok := domain.LookupFunction(k.Value)
		if !ok {
			return fmt.Errorf("%w: unknown function %q", domain.ErrInvalidKey, k.Value)
		}
		m.ApplyFunction(ctx, s, f)
	case domain.KeyEvaluate:
		m.Evaluate(ctx, s)
	case domain.KeyMemoryClear:
		m.MemoryClear(s)
	case domain.KeyMemoryRecall:
		m.MemoryRecall(s)
	case domain.KeyMemoryAdd:
		m.MemoryAdd(s)
	case domain.KeyMemorySubtract:
		m.MemorySubtract(s)
	case domain.KeyAngleMode:
		return m.SetAngleMode(s, domain.AngleMode(k.Value))
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidKey, k.Kind)
	}
	return nil
}

// PressAll applies keys in order, stopping at the first invalid key.
func (m *Machine) PressAll(ctx context.Context, s *domain.State, keys []domain.Key) error {
	for i, k := range keys {
		if err := m.Press(ctx, s, k); err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
	}
	return nil
}

// begin leaves the error display and drops the previous notice.
func begin(s *domain.State) {
	s.Settle()
	s.Notice = ""
}

// InputDigit replaces the buffer when awaiting fresh input or cleared,
// and appends otherwise.
func (m *Machine) InputDigit(s *domain.State, d string) error {
	if len(d) != 1 || !isDigit(d[0]) {
		return fmt.Errorf("%w: digit %q", domain.ErrInvalidKey, d)
	}
	begin(s)
	if s.Buffer.AwaitingFresh || s.Buffer.IsZero() {
		s.Buffer = domain.Buffer{Text: d}
		return nil
	}
	s.Buffer.Text += d
	return nil
}

// InputOperator appends an operator or parenthesis. Adjacent operators are
// accepted here and rejected by the evaluator. A cleared buffer ignores
// operators; an opening parenthesis starts a new expression instead.
func (m *Machine) InputOperator(s *domain.State, op string) error {
	switch op {
	case "×":
		op = "*"
	case "÷":
		op = "/"
	}
	if len(op) != 1 || !strings.Contains(tokenBreaks, op) {
		return fmt.Errorf("%w: operator %q", domain.ErrInvalidKey, op)
	}
	begin(s)
	if op == "(" && (s.Buffer.AwaitingFresh || s.Buffer.IsZero()) {
		s.Buffer = domain.Buffer{Text: op}
		return nil
	}
	if s.Buffer.Text == "" || s.Buffer.IsZero() {
		return nil
	}
	s.Buffer.Text += op
	s.Buffer.AwaitingFresh = false
	return nil
}

// InputDecimal starts "0." on fresh input, otherwise adds a point to the
// trailing numeric token unless it already has one.
func (m *Machine) InputDecimal(s *domain.State) {
	begin(s)
	if s.Buffer.AwaitingFresh {
		s.Buffer = domain.Buffer{Text: "0."}
		return
	}
	if !strings.Contains(trailingToken(s.Buffer.Text), ".") {
		s.Buffer.Text += "."
	}
}

// trailingToken returns the suffix after the last operator or parenthesis.
func trailingToken(text string) string {
	return text[strings.LastIndexAny(text, tokenBreaks)+1:]
}

// ClearAll resets the buffer and the annotation.
func (m *Machine) ClearAll(s *domain.State) {
	begin(s)
	s.Buffer = domain.Buffer{Text: domain.DefaultBuffer}
	s.Annotation = ""
}

// ClearEntry resets the buffer text only.
func (m *Machine) ClearEntry(s *domain.State) {
	begin(s)
	s.Buffer.Text = domain.DefaultBuffer
}

// DeleteLast removes the last character.
func (m *Machine) DeleteLast(s *domain.State) {
	begin(s)
	if len(s.Buffer.Text) > 1 {
		s.Buffer.Text = s.Buffer.Text[:len(s.Buffer.Text)-1]
		return
	}
	s.Buffer.Text = domain.DefaultBuffer
}

// ToggleSign prepends or strips a leading minus. A cleared buffer is left alone.
func (m *Machine) ToggleSign(s *domain.State) {
	begin(s)
	if s.Buffer.IsZero() {
		return
	}
	if rest, ok := strings.CutPrefix(s.Buffer.Text, "-"); ok {
		s.Buffer.Text = rest
		return
	}
	s.Buffer.Text = "-" + s.Buffer.Text
}

// constantText is the full decimal representation inserted for each constant.
var constantText = map[domain.Constant]string{
	domain.ConstPi: strconv.FormatFloat(math.Pi, 'g', -1, 64),
	domain.ConstE:  strconv.FormatFloat(math.E, 'g', -1, 64),
}

// InsertConstant enters pi or e as a fresh number and arms fresh input.
// Right after an operator or "(" the constant starts the next operand;
// otherwise it replaces the buffer.
func (m *Machine) InsertConstant(s *domain.State, c domain.Constant) error {
	text, ok := constantText[c]
	if !ok {
		return fmt.Errorf("%w: constant %q", domain.ErrInvalidKey, c)
	}
	begin(s)
	if !s.Buffer.AwaitingFresh && !s.Buffer.IsZero() && trailingToken(s.Buffer.Text) == "" {
		s.Buffer.Text += text
	} else {
		s.Buffer.Text = text
	}
	s.Buffer.AwaitingFresh = true
	return nil
}

// ApplyFunction applies f to the buffer read as a single number.
func (m *Machine) ApplyFunction(ctx context.Context, s *domain.State, f domain.Function) {
	begin(s)
	original := s.Buffer.Text

	x, err := strconv.ParseFloat(original, 64)
	if err != nil {
		m.fail(ctx, s, original, domain.Fail(domain.SyntaxError, "%s operand %q is not a number", f, original))
		return
	}

	r := ApplyFunction(f, x, s.AngleMode)
	if !r.IsOk() {
		m.fail(ctx, s, original, r)
		return
	}

	result := format.Result(r.Value)
	expression := fmt.Sprintf("%s(%s)", f, original)
	s.Buffer = domain.Buffer{Text: result, AwaitingFresh: true}
	s.Annotation = expression + " ="

	if m.hooks.OnCalculation != nil {
		m.hooks.OnCalculation(ctx, &domain.CalculationEvent{
			EventBase:  m.event(s, domain.EventFunction),
			Expression: expression,
			Result:     result,
			Category:   f.Category(),
		})
	}
}

// Evaluate computes the whole buffer.
func (m *Machine) Evaluate(ctx context.Context, s *domain.State) {
	begin(s)
	expression := s.Buffer.Text

	r := m.evaluator.Evaluate(expression)
	if !r.IsOk() {
		m.fail(ctx, s, expression, r)
		return
	}

	result := format.Result(r.Value)
	s.Buffer = domain.Buffer{Text: result, AwaitingFresh: true}
	s.Annotation = expression + " ="

	if m.hooks.OnCalculation != nil {
		m.hooks.OnCalculation(ctx, &domain.CalculationEvent{
			EventBase:  m.event(s, domain.EventEvaluated),
			Expression: expression,
			Result:     result,
			Category:   domain.OpBasic,
		})
	}
}

// fail enters the error display. The logical buffer is reset immediately;
// clearing the label after the dwell is the presentation layer's concern.
func (m *Machine) fail(ctx context.Context, s *domain.State, input string, r domain.Result) {
	m.logger.Debug("calculation failed", "session_id", s.SessionID, "input", input, "kind", r.Kind, "cause", r.Cause)

	s.ErrorLabel = r.Kind.Label()
	s.Buffer = domain.Buffer{Text: domain.DefaultBuffer, AwaitingFresh: true}

	if m.hooks.OnError != nil {
		m.hooks.OnError(ctx, &domain.ErrorEvent{
			EventBase: m.event(s, domain.EventError),
			Input:     input,
			Kind:      r.Kind,
			Cause:     r.Cause,
		})
	}
}

func (m *Machine) event(s *domain.State, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: m.now(),
		Type:      t,
		SessionID: s.SessionID,
		Owner:     s.Owner,
	}
}

// MemoryClear zeroes the register.
func (m *Machine) MemoryClear(s *domain.State) {
	begin(s)
	s.Memory.Value = 0
	s.Notice = NoticeMemoryCleared
}

// MemoryRecall loads the register into the buffer and arms fresh input.
func (m *Machine) MemoryRecall(s *domain.State) {
	begin(s)
	s.Buffer = domain.Buffer{Text: format.Result(s.Memory.Value), AwaitingFresh: true}
}

// MemoryAdd adds the buffer to the register when it is a clean number.
func (m *Machine) MemoryAdd(s *domain.State) {
	begin(s)
	v, ok := bufferNumber(s)
	if !ok {
		s.Notice = NoticeMemoryUnchanged
		return
	}
	s.Memory.Value += v
	s.Notice = NoticeMemoryAdded
}

// MemorySubtract subtracts the buffer from the register when it is a clean number.
func (m *Machine) MemorySubtract(s *domain.State) {
	begin(s)
	v, ok := bufferNumber(s)
	if !ok {
		s.Notice = NoticeMemoryUnchanged
		return
	}
	s.Memory.Value -= v
	s.Notice = NoticeMemorySubtracted
}

func bufferNumber(s *domain.State) (float64, bool) {
	v, err := strconv.ParseFloat(s.Buffer.Text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SetAngleMode switches between degrees and radians.
func (m *Machine) SetAngleMode(s *domain.State, mode domain.AngleMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: angle mode %q", domain.ErrInvalidKey, mode)
	}
	begin(s)
	s.AngleMode = mode
	return nil
}
