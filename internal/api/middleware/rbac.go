package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

// RestrictTo enforces role-based access control. It must run strictly after
// Protect: a request without a resolved principal fails 401, a principal
// outside the permitted role set fails 403.
func RestrictTo(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return domain.ErrNotLoggedIn
			}
			if !user.HasAnyRole(roles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
