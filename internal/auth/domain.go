// Package auth handles users, credentials and JWT-based request
// authentication.
package auth

import "time"

const (
	// RoleAdmin may manage users in addition to everything RoleStaff can do.
	RoleAdmin = "admin"
	// RoleStaff is the default role for operational work.
	RoleStaff = "staff"
)

// User is an account able to log in.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserInput is a new account request.
type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
