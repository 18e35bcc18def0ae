package models

import "time"

// User is a staff account (admin, accountant or front-desk staff)
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin, accountant, staff
	IsActive     bool      `json:"is_active"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	TOTPSecret   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignupRequest creates the first admin or a staff account
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin accountant staff"`
}

// LoginRequest authenticates a staff account
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token. When 2FA is enabled the token is
// a short-lived temp token and RequiresTOTP is set.
type LoginResponse struct {
	Token        string `json:"token"`
	RequiresTOTP bool   `json:"requires_totp,omitempty"`
	User         *User  `json:"user,omitempty"`
}
