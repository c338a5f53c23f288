package auth

import (
	"errors"
	"testing"
	"time"
)

func testTokenManager(t *testing.T, opts ...TokenOption) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret-0123456789", "vernis-test", opts...)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := testTokenManager(t)

	token, expiresAt, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject: got %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("jti missing")
	}
}

func TestSessionRejectsTamperedAndForeignTokens(t *testing.T) {
	m := testTokenManager(t)
	token, _, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := m.Parse(token + "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("tampered token: expected ErrUnauthorized, got %v", err)
	}

	// Same secret, different issuer.
	otherIssuer, err := NewTokenManager("test-secret-0123456789", "someone-else")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	wrongIssuer, _, err := otherIssuer.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := m.Parse(wrongIssuer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong issuer: expected ErrUnauthorized, got %v", err)
	}

	if _, err := m.Parse(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token: expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testTokenManager(t,
		WithSessionTTL(10*time.Minute),
		WithTokenClock(func() time.Time { return current }))

	token, expiresAt, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := expiresAt.Sub(current); got != 10*time.Minute {
		t.Fatalf("ttl: got %v", got)
	}

	if _, err := m.Parse(token); err != nil {
		t.Fatalf("fresh token must parse: %v", err)
	}

	current = current.Add(11 * time.Minute)
	if _, err := m.Parse(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: expected ErrUnauthorized, got %v", err)
	}
}
