package crypto

import (
	"crypto/rand"
	"math/big"
)

const (
	sessionIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// SessionIDLength gives log2(62^43) ≈ 256 bits of entropy.
	SessionIDLength = 43
)

// NewSessionID returns a cryptographically random, URL-safe session identifier.
func NewSessionID() (string, error) {
	result := make([]byte, SessionIDLength)
	for i := range result {
		ch, err := randChar(sessionIDChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// ValidSessionID reports whether id has the shape of a generated session id.
// It lets callers reject garbage without a store round-trip.
func ValidSessionID(id string) bool {
	if len(id) != SessionIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
