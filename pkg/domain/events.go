package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEvaluated EventType = "evaluated"
	EventFunction  EventType = "function_applied"
	EventError     EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Owner     int64     `json:"owner,omitempty"`
}

// CalculationEvent is emitted when an evaluation or a scientific function succeeds.
type CalculationEvent struct {
	EventBase
	Expression string        `json:"expression"`
	Result     string        `json:"result"`
	Category   OperationType `json:"category"`
}

// ErrorEvent is emitted when a calculation enters the error display.
type ErrorEvent struct {
	EventBase
	Input string    `json:"input"`
	Kind  ErrorKind `json:"kind"`
	Cause string    `json:"cause,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the input path and must not block.
type LifecycleHooks struct {
	OnCalculation func(context.Context, *CalculationEvent)
	OnError       func(context.Context, *ErrorEvent)
}

// ChainHooks combines hooks so each event reaches every non-nil callback in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var chained LifecycleHooks
	for _, h := range hooks {
		if h.OnCalculation != nil {
			prev, next := chained.OnCalculation, h.OnCalculation
			chained.OnCalculation = func(ctx context.Context, e *CalculationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnError != nil {
			prev, next := chained.OnError, h.OnError
			chained.OnError = func(ctx context.Context, e *ErrorEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return chained
}
