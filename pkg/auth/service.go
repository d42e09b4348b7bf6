package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/ports"
)

// RegisterInput is the payload of an account registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service registers and authenticates users.
type Service struct {
	users  ports.UserRepository
	tokens *Tokens
	cost   int
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides DefaultBcryptCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an auth service over a user repository.
func NewService(users ports.UserRepository, tokens *Tokens, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		cost:   DefaultBcryptCost,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the input, creates the account and issues a token.
// Returns a *ValidationError or an error wrapping domain.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	email := NormalizeEmail(in.Email)
	name := NormalizeName(in.Name)

	var v ValidationError
	validateEmail(&v, email)
	validatePassword(&v, in.Password)
	validateName(&v, name)
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.CreateUser(ctx, email, name, hash)
	if err != nil {
		return nil, "", fmt.Errorf("register %s: %w", email, err)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords both wrap domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	email := NormalizeEmail(in.Email)

	var v ValidationError
	validateEmail(&v, email)
	if in.Password == "" {
		v.Add("password", "is required")
	}
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	user, hash, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	ok, err := CheckPassword(hash, in.Password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate verifies a bearer token and loads its user.
// Errors wrap domain.ErrTokenInvalid, domain.ErrTokenExpired or domain.ErrUserNotFound.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}
