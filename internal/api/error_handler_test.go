package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

func handleError(t *testing.T, err error, production bool, target string) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop(), production)(err, c)

	var resp errorResponse
	if strings.HasPrefix(target, "/api") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal error body: %v", err)
		}
	}
	return rec, resp
}

func TestErrorHandler_SentinelMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password."},
		{"not logged in", domain.ErrNotLoggedIn, http.StatusUnauthorized, "Not authorized: please log in to gain access."},
		{"token expired", domain.ErrTokenExpired, http.StatusUnauthorized, "Access token has expired! Please log in again."},
		{"token invalid", domain.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token! Please log in again."},
		{"password changed", domain.ErrPasswordChanged, http.StatusUnauthorized, "User recently changed password! Please log in again."},
		{"user gone", domain.ErrUserGone, http.StatusUnauthorized, "The user with this access token does no longer exist."},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "You do not have the permission to perform this action."},
		{"booking required", domain.ErrBookingRequired, http.StatusForbidden, "You must book the tour before you can write a review."},
		{"email not found", domain.ErrEmailNotFound, http.StatusNotFound, "There is no user with that email."},
		{"reset token", domain.ErrResetTokenInvalid, http.StatusBadRequest, "Password reset token is invalid or has expired."},
		{"passwords mismatch", domain.ErrPasswordsMismatch, http.StatusBadRequest, "Passwords are not the same!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := handleError(t, tc.err, true, "/api/v1/test")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if resp.Status != "error" || resp.Message != tc.msg {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestErrorHandler_NotFoundError(t *testing.T) {
	err := &domain.NotFoundError{Resource: "tour", ID: "abc123"}
	rec, resp := handleError(t, err, true, "/api/v1/tours/abc123")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp.Message != "no tour found with the id of 'abc123'" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestErrorHandler_UnknownError(t *testing.T) {
	boom := errors.New("pipe burst")

	rec, resp := handleError(t, boom, true, "/api/v1/tours")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp.Message != "Something went wrong!" {
		t.Fatalf("production leaked internals: %q", resp.Message)
	}
	if resp.Detail != "" {
		t.Fatalf("production leaked detail: %q", resp.Detail)
	}

	_, resp = handleError(t, boom, false, "/api/v1/tours")
	if resp.Detail != "pipe burst" {
		t.Fatalf("development should include detail, got %q", resp.Detail)
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	rec, resp := handleError(t, echo.ErrNotFound, true, "/api/v1/nonsense")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp.Message != "This resource '/api/v1/nonsense' cannot be found on this server" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestErrorHandler_PageRequestGetsHTML(t *testing.T) {
	rec, _ := handleError(t, domain.ErrForbidden, true, "/account")
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
		t.Fatalf("expected HTML response for page request, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong!") {
		t.Fatalf("unexpected page body: %s", rec.Body.String())
	}
}
