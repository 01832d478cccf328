// Package mailer sends transactional email.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tourbase/tourbase/internal/model"
)

// Mailer delivers transactional email to users.
type Mailer interface {
	// SendWelcome greets a newly signed-up user.
	SendWelcome(ctx context.Context, user *model.User) error

	// SendPasswordReset delivers the reset URL containing the raw
	// nonce. The nonce appears nowhere else; if delivery fails the
	// caller must revoke the ticket.
	SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error
}

// LogMailer writes outbound mail to the log instead of sending it.
// Used in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendWelcome logs the welcome mail.
func (m *LogMailer) SendWelcome(ctx context.Context, user *model.User) error {
	m.logger.InfoContext(ctx, "mail: welcome",
		slog.String("to", user.Email),
		slog.String("user_id", user.ID),
	)
	return nil
}

// SendPasswordReset logs the reset mail. The URL carries the raw
// nonce, so this implementation must never run in production.
func (m *LogMailer) SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error {
	m.logger.InfoContext(ctx, "mail: password reset",
		slog.String("to", user.Email),
		slog.String("user_id", user.ID),
		slog.String("reset_url", resetURL),
	)
	return nil
}

// ResetURL builds the password reset link for a raw nonce.
func ResetURL(baseURL, rawNonce string) string {
	return fmt.Sprintf("%s/api/v1/users/reset-password/%s", baseURL, rawNonce)
}
