package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

const (
	bcryptCost    = 12
	resetTokenTTL = 10 * time.Minute
)

// AuthService owns session-credential issuance, verification, and the
// password lifecycle. Validity of a credential is purely a function of its
// signature, its expiry, and the principal's last password change.
type AuthService struct {
	users     ports.UserRepository
	mailer    ports.Mailer
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, mailer ports.Mailer, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		mailer:    mailer,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	if in.Password != in.PasswordConfirm {
		return "", nil, domain.ErrPasswordsMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Insert(ctx, user)
	if err != nil {
		return "", nil, err
	}

	if err := s.mailer.SendWelcome(ctx, created, "/account"); err != nil {
		s.logger.Warn().Err(err).Str("email", created.Email).Msg("welcome mail handoff failed")
	}

	token, err := s.issueToken(created)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("email", created.Email).Msg("user signed up")
	return token, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, &domain.ValidationError{Message: "please provide an email and password"}
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate verifies a presented credential: signature and expiry first,
// then principal existence, then password-change invalidation.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) || errors.Is(err, domain.ErrInvalidID) {
			return nil, domain.ErrUserGone
		}
		return nil, err
	}

	issuedAt := time.Time{}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if user.PasswordChangedAfter(issuedAt) {
		return nil, domain.ErrPasswordChanged
	}

	return user, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	resetToken, hash, err := newResetToken()
	if err != nil {
		return err
	}

	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return err
	}

	resetURL := strings.TrimRight(resetURLBase, "/") + "/" + resetToken
	if err := s.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		// The stored hash is useless without the mailed token; clear it so the
		// principal is left exactly as before.
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("email", user.Email).Msg("failed to clear reset token")
		}
		return fmt.Errorf("send reset mail: %w", err)
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password, passwordConfirm string) (string, *domain.User, error) {
	if password != passwordConfirm {
		return "", nil, domain.ErrPasswordsMismatch
	}

	sum := sha256.Sum256([]byte(resetToken))
	user, err := s.users.FindByResetHash(ctx, hex.EncodeToString(sum[:]), time.Now().UTC())
	if err != nil {
		return "", nil, err
	}

	if err := s.savePassword(ctx, user, password); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info().Str("email", user.Email).Msg("password reset")
	return token, user, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, user *domain.User, current, password, passwordConfirm string) (string, *domain.User, error) {
	if password != passwordConfirm {
		return "", nil, domain.ErrPasswordsMismatch
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return "", nil, domain.ErrWrongPassword
	}

	if err := s.savePassword(ctx, user, password); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// savePassword rehashes and persists the credential, stamping the change one
// second in the past so a token issued in the same second is still rejected.
func (s *AuthService) savePassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC().Add(-time.Second)
	if err := s.users.SavePassword(ctx, user.ID, string(hash), changedAt); err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	user.PasswordChangedAt = changedAt
	user.PasswordResetHash = ""
	user.PasswordResetExp = time.Time{}
	return nil
}

// TokenTTL exposes the credential lifetime so the cookie written by the
// handler can match it.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// newResetToken returns the opaque token to hand to the principal and the
// one-way hash to store; the token itself is never persisted.
func newResetToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("reset token: %w", err)
	}
	token = hex.EncodeToString(b)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
