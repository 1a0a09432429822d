package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/natours/tour-booking-api/internal/api/metrics"
)

// RateLimit applies the fixed-window quota to /api paths, keyed by client IP.
// Exceeding the quota yields a 429 carrying message; a store failure fails
// closed with a 500.
func RateLimit(store echomiddleware.RateLimiterStore, message string) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api")
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "rate limiter unavailable")
		},
		// Echo routes store failures here too, with the error set.
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "rate limiter unavailable")
			}
			metrics.RateLimitRejectedTotal.Inc()
			return echo.NewHTTPError(http.StatusTooManyRequests, message)
		},
	})
}
