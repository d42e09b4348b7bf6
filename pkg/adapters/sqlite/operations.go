package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// CreateOperation records a calculation. A zero CreatedAt means now.
func (s *Store) CreateOperation(ctx context.Context, op domain.Operation) (*domain.Operation, error) {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = s.now()
	}
	op.CreatedAt = op.CreatedAt.UTC().Truncate(time.Second)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (user_id, expression, result, operation_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, op.UserID, op.Expression, op.Result, string(op.OperationType), formatTime(op.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}

	if op.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}
	return &op, nil
}

// ListOperations returns one page of the user's history, newest first.
func (s *Store) ListOperations(ctx context.Context, userID int64, limit, offset int) ([]domain.Operation, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count operations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, expression, result, operation_type, created_at
		FROM operations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []domain.Operation
	for rows.Next() {
		var (
			op      domain.Operation
			opType  string
			created string
		)
		if err := rows.Scan(&op.ID, &op.UserID, &op.Expression, &op.Result, &opType, &created); err != nil {
			return nil, 0, fmt.Errorf("scan operation: %w", err)
		}
		op.OperationType = domain.OperationType(opType)
		if op.CreatedAt, err = parseTime(created); err != nil {
			return nil, 0, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}

	return ops, total, nil
}

// DeleteOperation removes one operation owned by userID.
func (s *Store) DeleteOperation(ctx context.Context, userID, operationID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ? AND user_id = ?`, operationID, userID)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete operation %d: %w", operationID, domain.ErrOperationNotFound)
	}
	return nil
}

// DeleteAllOperations clears the user's history.
func (s *Store) DeleteAllOperations(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete operations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete operations: %w", err)
	}
	return n, nil
}

// Statistics aggregates the user's history: totals, counts per type
// (most frequent first) and counts per day since the given time (newest first).
func (s *Store) Statistics(ctx context.Context, userID int64, since time.Time) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		OperationsByType: []domain.TypeCount{},
		DailyOperations:  []domain.DailyCount{},
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations WHERE user_id = ?`, userID).Scan(&stats.TotalOperations)
	if err != nil {
		return nil, fmt.Errorf("count operations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT operation_type, COUNT(*) AS count
		FROM operations
		WHERE user_id = ?
		GROUP BY operation_type
		ORDER BY count DESC, operation_type ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("operations by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tc     domain.TypeCount
			opType string
		)
		if err := rows.Scan(&opType, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		tc.OperationType = domain.OperationType(opType)
		stats.OperationsByType = append(stats.OperationsByType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("operations by type: %w", err)
	}
	// Release the single connection before the next query.
	rows.Close()

	daily, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, COUNT(*)
		FROM operations
		WHERE user_id = ? AND created_at >= ?
		GROUP BY day
		ORDER BY day DESC
	`, userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("daily operations: %w", err)
	}
	defer daily.Close()

	for daily.Next() {
		var dc domain.DailyCount
		if err := daily.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		stats.DailyOperations = append(stats.DailyOperations, dc)
	}
	if err := daily.Err(); err != nil {
		return nil, fmt.Errorf("daily operations: %w", err)
	}

	return stats, nil
}
