package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inventia-erp/inventia/internal/shared"
)

// Repository provides user persistence.
type Repository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service implements authentication and user management.
type Service struct {
	repo   Repository
	logger *slog.Logger
	secret []byte
	ttl    time.Duration
}

// NewService wires the auth service.
func NewService(repo Repository, logger *slog.Logger, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, logger: logger, secret: []byte(secret), ttl: ttl}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, creds Credentials) (string, User, error) {
	user, err := s.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", User{}, fmt.Errorf("auth: %w", shared.ErrInvalidCredentials)
		}
		return "", User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return "", User{}, fmt.Errorf("auth: %w", shared.ErrInvalidCredentials)
	}
	token, err := s.issueToken(user)
	if err != nil {
		return "", User{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return token, user, nil
}

func (s *Service) issueToken(user User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the user id and role it carries.
func (s *Service) Verify(tokenString string) (int64, string, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, "", fmt.Errorf("auth: %w: %v", shared.ErrUnauthorized, err)
	}
	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("auth: %w: bad subject", shared.ErrUnauthorized)
	}
	return userID, parsed.Role, nil
}

// CreateUser stores a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	if input.Name == "" || input.Email == "" {
		return User{}, fmt.Errorf("auth: %w: name and email required", shared.ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return User{}, fmt.Errorf("auth: %w: password must be at least 8 characters", shared.ErrInvalidInput)
	}
	role := input.Role
	if role == "" {
		role = RoleStaff
	}
	if role != RoleAdmin && role != RoleStaff {
		return User{}, fmt.Errorf("auth: %w: unknown role %q", shared.ErrInvalidInput, role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, User{
		Name:         input.Name,
		Email:        input.Email,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetUser loads one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers lists all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
