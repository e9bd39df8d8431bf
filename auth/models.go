package auth

import "time"

// Account is the domain representation of an authenticated account. It
// mirrors the accounts table and should not include JSON annotations so it
// can be reused by different presentation layers.
type Account struct {
	ID           string
	Email        string
	Name         string
	TaxID        string
	Phone        *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains account registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	TaxID    string `json:"taxId" validate:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest contains account login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
