// Package history stores and aggregates the calculation history of users.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

const (
	DefaultPage       = 1
	DefaultLimit      = 50
	MaxLimit          = 100
	MaxExpressionSize = 1000
	// MaxPage keeps the row offset far from integer overflow.
	MaxPage = math.MaxInt32 / MaxLimit
	// StatisticsWindow bounds the daily breakdown of Statistics.
	StatisticsWindow = 30 * 24 * time.Hour
)

// OperationInput is the payload of a saved operation.
type OperationInput struct {
	Expression    string               `json:"expression"`
	Result        string               `json:"result"`
	OperationType domain.OperationType `json:"operation_type"`
}

// Validate trims the expression and checks every field.
// Returns a *auth.ValidationError listing the rejected fields.
func (in *OperationInput) Validate() error {
	in.Expression = strings.TrimSpace(in.Expression)
	in.Result = strings.TrimSpace(in.Result)

	var v auth.ValidationError
	switch n := utf8.RuneCountInString(in.Expression); {
	case n == 0:
		v.Add("expression", "is required")
	case n > MaxExpressionSize:
		v.Add("expression", "must be at most %d characters", MaxExpressionSize)
	}
	if in.Result == "" {
		v.Add("result", "is required")
	}
	if !in.OperationType.Valid() {
		v.Add("operation_type", "must be one of %v", domain.OperationTypes)
	}
	return v.Err()
}

// Page is one page of a user's history.
type Page struct {
	Operations []domain.Operation
	Pagination domain.Pagination
}

// Service implements the history use cases over an OperationRepository.
type Service struct {
	ops    ports.OperationRepository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now for the statistics window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a history service.
func NewService(ops ports.OperationRepository, opts ...Option) *Service {
	s := &Service{ops: ops, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates and persists one operation for userID.
func (s *Service) Save(ctx context.Context, userID int64, in OperationInput) (*domain.Operation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op, err := s.ops.CreateOperation(ctx, domain.Operation{
		UserID:        userID,
		Expression:    in.Expression,
		Result:        in.Result,
		OperationType: in.OperationType,
	})
	if err != nil {
		return nil, fmt.Errorf("save operation: %w", err)
	}
	return op, nil
}

// List returns one page of the user's history, newest first.
// Non-positive page or limit values fall back to the defaults. Larger
// values are clamped to MaxPage and MaxLimit.
func (s *Service) List(ctx context.Context, userID int64, page, limit int) (*Page, error) {
	switch {
	case page < 1:
		page = DefaultPage
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	ops, total, err := s.ops.ListOperations(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	if ops == nil {
		ops = []domain.Operation{}
	}
	return &Page{Operations: ops, Pagination: domain.NewPagination(page, limit, total)}, nil
}

// Delete removes one of the user's operations.
// Returns an error wrapping domain.ErrOperationNotFound when it is not theirs.
func (s *Service) Delete(ctx context.Context, userID, operationID int64) error {
	if err := s.ops.DeleteOperation(ctx, userID, operationID); err != nil {
		return fmt.Errorf("delete operation %d: %w", operationID, err)
	}
	return nil
}

// Clear removes the user's whole history and returns the number of removed operations.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.ops.DeleteAllOperations(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info("history cleared", "user_id", userID, "deleted", n)
	return n, nil
}

// Statistics aggregates the user's history over the last StatisticsWindow.
func (s *Service) Statistics(ctx context.Context, userID int64) (*domain.Statistics, error) {
	y, m, d := s.now().UTC().Add(-StatisticsWindow).Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	stats, err := s.ops.Statistics(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}
