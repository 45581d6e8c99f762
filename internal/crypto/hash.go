package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidHashFormat = errors.New("invalid encoded hash format")
	ErrInvalidCost       = errors.New("bcrypt cost out of range")
	ErrPasswordTooLong   = errors.New("password exceeds 72 bytes")
)

const (
	// DefaultCost is the work factor used when none is configured.
	DefaultCost = 10

	MinCost = 4
	MaxCost = 14

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// HashPassword hashes a password using bcrypt at the given cost.
// The salt is generated by bcrypt and embedded in the returned hash.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinCost || cost > MaxCost {
		return "", fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword checks whether a password matches the given bcrypt hash.
// A mismatch is reported as (false, nil); a malformed hash as an error.
func VerifyPassword(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
}

// HashCost returns the work factor a hash was produced with.
func HashCost(encodedHash string) (int, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
	return cost, nil
}
