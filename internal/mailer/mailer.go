// Package mailer is the outbound notification collaborator. Delivery itself
// is out of scope for this service; the shipped implementation records what
// would have been sent through the structured log so operators can trace
// confirmation and reset flows end to end.
package mailer

import (
	"context"
	"time"

	"vernis.app/internal/obs"
)

// Mailer sends the single-use-token notifications of the auth flows.
// Implementations must treat a send failure as reportable but non-fatal:
// the state change that produced the token is already committed.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogMailer writes notifications to the structured log instead of an SMTP
// relay. Used in development and as the default wiring.
type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, email, token string, expiresAt time.Time) error {
	obs.LogRequest(map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      "info",
		"msg":        "mail.confirmation",
		"email":      email,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	obs.LogRequest(map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      "info",
		"msg":        "mail.password_reset",
		"email":      email,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	return nil
}
