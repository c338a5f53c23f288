package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

// HashPassword hashes a plaintext password with bcrypt (10 rounds).
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored bcrypt hash.
// A mismatch returns ErrUnauthorized; anything else (truncated hash, wrong
// format) is an infrastructure fault and is reported as such, never as a
// silent "no match".
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrUnauthorized
	}
	return fmt.Errorf("verify password: %w", err)
}

// GenerateToken returns a hex-encoded token with 256 bits of entropy,
// suitable for single-use confirmation and reset links.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ExpiryFromNow computes an absolute expiry from the supplied clock.
func ExpiryFromNow(now func() time.Time, d time.Duration) time.Time {
	return now().UTC().Add(d)
}

// Expired reports whether the expiry instant has been reached. The instant
// itself counts as expired: now >= expiry rejects.
func Expired(now, expiry time.Time) bool {
	return !now.Before(expiry)
}
