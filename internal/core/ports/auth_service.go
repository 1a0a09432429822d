package ports

import (
	"context"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

// SignupInput carries the only fields accepted at signup; role is always
// the standard user role.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthService owns credential issuance and verification. No other component
// inspects or recomputes token validity.
type AuthService interface {
	// Signup creates a standard-role principal and issues a credential.
	Signup(ctx context.Context, in SignupInput) (token string, user *domain.User, err error)
	// Login verifies email+password and issues a credential.
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// Authenticate verifies a presented credential end to end: signature,
	// expiry, principal existence, and password-change invalidation.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	// ForgotPassword generates a reset token, stores its hash, and hands the
	// original off to the mailer. Fails NotFound for an unknown email.
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	// ResetPassword consumes a reset token and issues a fresh credential.
	ResetPassword(ctx context.Context, resetToken, password, passwordConfirm string) (string, *domain.User, error)
	// UpdatePassword changes the password of a logged-in principal after
	// re-verifying the current one, then issues a fresh credential.
	UpdatePassword(ctx context.Context, user *domain.User, current, password, passwordConfirm string) (string, *domain.User, error)
}
