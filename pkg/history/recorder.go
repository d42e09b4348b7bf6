package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

// DefaultQueueSize is the recorder buffer when none is configured.
const DefaultQueueSize = 256

// Recorder persists completed calculations in the background.
// Record never blocks: when the queue is full the record is dropped.
type Recorder struct {
	ops    ports.OperationRepository
	queue  chan domain.Operation
	logger *slog.Logger
	onDrop func()
	onSave func(domain.OperationType)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithQueueSize sets the number of records buffered before dropping.
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan domain.Operation, n)
		}
	}
}

// WithRecorderLogger sets the recorder logger.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithDropHook is called for each dropped record.
func WithDropHook(fn func()) RecorderOption {
	return func(r *Recorder) { r.onDrop = fn }
}

// WithSaveHook is called after each persisted record.
func WithSaveHook(fn func(domain.OperationType)) RecorderOption {
	return func(r *Recorder) { r.onSave = fn }
}

// NewRecorder creates a recorder. Call Start to begin persisting.
func NewRecorder(ops ports.OperationRepository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		ops:    ops,
		queue:  make(chan domain.Operation, DefaultQueueSize),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the worker that persists queued records until Close is
// called and the queue is drained. Store writes use ctx.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()
	for op := range r.queue {
		if _, err := r.ops.CreateOperation(ctx, op); err != nil {
			r.logger.Error("failed to record operation", "user_id", op.UserID, "error", err)
			continue
		}
		if r.onSave != nil {
			r.onSave(op.OperationType)
		}
	}
}

// Record enqueues an operation. It reports false if the record was dropped.
// Operations that would fail OperationInput validation are never queued.
func (r *Recorder) Record(op domain.Operation) bool {
	in := OperationInput{Expression: op.Expression, Result: op.Result, OperationType: op.OperationType}
	if err := in.Validate(); err != nil {
		r.logger.Warn("skipping invalid operation", "user_id", op.UserID, "error", err)
		return false
	}
	op.Expression, op.Result = in.Expression, in.Result

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- op:
		return true
	default:
		r.logger.Warn("history queue full, dropping operation", "user_id", op.UserID, "expression", op.Expression)
		if r.onDrop != nil {
			r.onDrop()
		}
		return false
	}
}

// Hook returns an OnCalculation hook recording the calculations of owned sessions.
func (r *Recorder) Hook() func(context.Context, *domain.CalculationEvent) {
	return func(_ context.Context, e *domain.CalculationEvent) {
		if e.Owner <= 0 {
			return
		}
		r.Record(domain.Operation{
			UserID:        e.Owner,
			Expression:    e.Expression,
			Result:        e.Result,
			OperationType: e.Category,
		})
	}
}

// Close stops accepting records and waits for the worker to drain the queue.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
