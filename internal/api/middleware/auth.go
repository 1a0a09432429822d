package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/natours/tour-booking-api/internal/api/metrics"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// CookieName is the session credential cookie.
const CookieName = "jwt"

const userContextKey = "user"

// Protect verifies the session credential and attaches the resolved principal
// to the request context. Requests without a valid credential fail with 401
// through the central error handler.
func Protect(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing").Inc()
				return domain.ErrNotLoggedIn
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrUserGone):
		return "gone"
	case errors.Is(err, domain.ErrPasswordChanged):
		return "password_changed"
	default:
		return "invalid"
	}
}

// IsLoggedIn runs the same checks as Protect but any failure continues the
// request as anonymous instead of failing it. Expired credentials are not
// silently re-issued.
func IsLoggedIn(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return next(c)
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return next(c)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the principal attached by Protect or IsLoggedIn.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userContextKey).(*domain.User)
	return user, ok && user != nil
}

// extractToken reads the credential from the session cookie, falling back to
// an Authorization bearer header.
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
