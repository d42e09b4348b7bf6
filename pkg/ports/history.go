package ports

import (
	"context"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// UserRepository stores accounts of the history service.
type UserRepository interface {
	// CreateUser inserts a user. Returns domain.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, email, name, passwordHash string) (*domain.User, error)

	// FindUserByEmail returns the user and its password hash.
	// Returns domain.ErrUserNotFound if no account matches.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, string, error)

	// FindUserByID returns domain.ErrUserNotFound if the ID does not exist.
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// OperationRepository stores the calculation history of each user.
// Every method is scoped to one user; rows of other users are invisible.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op domain.Operation) (*domain.Operation, error)

	// ListOperations returns one page, newest first, and the total count.
	ListOperations(ctx context.Context, userID int64, limit, offset int) ([]domain.Operation, int, error)

	// DeleteOperation returns domain.ErrOperationNotFound if the operation
	// does not exist or belongs to another user.
	DeleteOperation(ctx context.Context, userID, operationID int64) error

	// DeleteAllOperations returns the number of removed rows.
	DeleteAllOperations(ctx context.Context, userID int64) (int64, error)

	// Statistics aggregates the user's history. Daily counts cover
	// operations created at or after since.
	Statistics(ctx context.Context, userID int64, since time.Time) (*domain.Statistics, error)
}
