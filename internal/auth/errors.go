package auth

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")

	// ErrUnauthorized covers failed authentication: bad credentials at
	// login, or a missing/invalid/expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the principal authenticated but lacks the
	// required roles or permissions.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidToken is reported for a confirmation or reset token that
	// is absent, mismatched, or expired. The three cases are deliberately
	// indistinguishable so callers cannot probe for token existence.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrEmailNotConfirmed rejects a login whose credentials are correct
	// but whose email address has not been confirmed yet.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
)
