package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Detail is
// only populated in the development posture.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns the single centralized error-translation stage:
//   - Operational errors (validation, not-found, unauthorized, forbidden,
//     rate-limited, duplicate-key) map to their status codes with a
//     user-readable message.
//   - Unknown errors are logged internally; in production the client sees
//     only a generic message.
//   - API requests (under /api) get the JSON envelope; page requests get a
//     minimal rendered error.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, operational := resolveError(err, c)

		if !operational {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		detail := ""
		if !production {
			detail = err.Error()
		}
		if production && !operational {
			msg = "Something went wrong!"
		}

		if !strings.HasPrefix(c.Request().URL.Path, "/api") {
			_ = c.HTML(code, fmt.Sprintf("<h1>Something went wrong!</h1><p>%s</p>", msg))
			return
		}

		_ = c.JSON(code, errorResponse{Status: "error", Message: msg, Detail: detail})
	}
}

// resolveError maps an error to (status code, client message, operational).
func resolveError(err error, c echo.Context) (int, string, bool) {
	// Echo's own errors: bind failures, body-limit 413, rate-limit 429,
	// router 404, method 405.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		if he.Code == http.StatusNotFound && errors.Is(err, echo.ErrNotFound) {
			msg = fmt.Sprintf("This resource '%s' cannot be found on this server", c.Request().URL.Path)
		}
		return he.Code, msg, true
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, nf.Error(), true
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error(), true
	}
	var dup *domain.DuplicateKeyError
	if errors.As(err, &dup) {
		return http.StatusBadRequest, dup.Error(), true
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect email or password.", true
	case errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized, "Not authorized: please log in to gain access.", true
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "Invalid token! Please log in again.", true
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Access token has expired! Please log in again.", true
	case errors.Is(err, domain.ErrPasswordChanged):
		return http.StatusUnauthorized, "User recently changed password! Please log in again.", true
	case errors.Is(err, domain.ErrUserGone):
		return http.StatusUnauthorized, "The user with this access token does no longer exist.", true
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized, "Your current password is incorrect.", true
	case errors.Is(err, domain.ErrPasswordsMismatch):
		return http.StatusBadRequest, "Passwords are not the same!", true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You do not have the permission to perform this action.", true
	case errors.Is(err, domain.ErrBookingRequired):
		return http.StatusForbidden, "You must book the tour before you can write a review.", true
	case errors.Is(err, domain.ErrEmailNotFound):
		return http.StatusNotFound, "There is no user with that email.", true
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusBadRequest, "Password reset token is invalid or has expired.", true
	case errors.Is(err, domain.ErrPasswordRouteMisuse):
		return http.StatusBadRequest, "You cannot update your password here, use /updatePassword instead.", true
	}

	return http.StatusInternalServerError, "Something went wrong!", false
}
