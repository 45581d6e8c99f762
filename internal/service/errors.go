package service

import (
	"errors"
	"fmt"

	"github.com/bengaltrails/bengaltrails-go/internal/repository"
)

var (
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrEmailTaken         = errors.New("an account with that email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)

// IsValidation reports whether err is a client-fixable input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooLong)
}

// storeError wraps an unexpected store failure, marking outages as
// ErrServiceUnavailable so handlers can answer 503 instead of 500.
func storeError(op string, err error) error {
	if repository.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
