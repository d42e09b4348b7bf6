package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/abacus/pkg/domain"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// CreateUser inserts a user. Returns domain.ErrEmailTaken on a duplicate email.
func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	now := formatTime(s.now())

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, email, passwordHash, name, now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("create user %s: %w", email, domain.ErrEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.FindUserByID(ctx, id)
}

// FindUserByEmail returns the user and its password hash.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at, updated_at, password_hash
		FROM users WHERE email = ?
	`, email)

	var hash string
	u, err := scanUser(row, &hash)
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// FindUserByID returns domain.ErrUserNotFound if the ID does not exist.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at, updated_at
		FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row, extra ...any) (*domain.User, error) {
	var (
		u                domain.User
		created, updated string
	)
	dest := append([]any{&u.ID, &u.Email, &u.Name, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
