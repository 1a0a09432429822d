// Package email implements the Mailer port. Actual delivery and templating
// live in the external mail transport; this implementation records the
// handoff so the reset-token flow stays observable and testable.
package email

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendWelcome(_ context.Context, user *domain.User, url string) error {
	m.logger.Info().
		Str("to", user.Email).
		Str("url", url).
		Msg("welcome mail handed off")
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, user *domain.User, resetURL string) error {
	// The reset URL embeds the unhashed token; keep it out of the log line.
	m.logger.Info().
		Str("to", user.Email).
		Int("url_len", len(resetURL)).
		Msg("password reset mail handed off")
	return nil
}
