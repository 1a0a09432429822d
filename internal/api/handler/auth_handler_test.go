package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn func(ctx context.Context, in ports.SignupInput) (string, *domain.User, error)
	loginFn  func(ctx context.Context, email, password string) (string, *domain.User, error)
	forgotFn func(ctx context.Context, email, resetURLBase string) error
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrTokenInvalid
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	return s.forgotFn(ctx, email, resetURLBase)
}

func (s *stubAuthService) ResetPassword(context.Context, string, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrResetTokenInvalid
}

func (s *stubAuthService) UpdatePassword(context.Context, *domain.User, string, string, string) (string, *domain.User, error) {
	return "", nil, nil
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Signup(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (string, *domain.User, error) {
			if in.Email != "alice@example.com" {
				t.Fatalf("unexpected email: %s", in.Email)
			}
			return "tok-1", &domain.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false, "http://localhost:8080")

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Alice","email":"alice@example.com","password":"pass1234","passwordConfirm":"pass1234"}`)

	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Data   struct {
			User map[string]any `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "success" || resp.Token != "tok-1" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if _, leaked := resp.Data.User["password"]; leaked {
		t.Fatalf("password hash leaked into response")
	}

	cookie := findCookie(rec, middleware.CookieName)
	if cookie == nil {
		t.Fatalf("expected credential cookie")
	}
	if cookie.Value != "tok-1" || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
}

func TestAuthHandler_Signup_ValidationError(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false, "")

	c, _ := newJSONContext(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Bob","email":"not-an-email","password":"pass1234","passwordConfirm":"different"}`)

	err := h.Signup(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 validation error, got %v", err)
	}
}

func TestAuthHandler_Login_WrongCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, time.Hour, false, "")

	c, _ := newJSONContext(t, http.MethodPost, "/api/v1/users/login",
		`{"email":"alice@example.com","password":"wrong"}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials to propagate, got %v", err)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false, "")

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/users/logout", "")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	cookie := findCookie(rec, middleware.CookieName)
	if cookie == nil || cookie.Value != "loggedOut" {
		t.Fatalf("expected logout cookie, got %+v", cookie)
	}
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	var gotBase string
	stub := &stubAuthService{
		forgotFn: func(_ context.Context, email, resetURLBase string) error {
			if email != "alice@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			gotBase = resetURLBase
			return nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false, "http://localhost:8080")

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/users/forgotPassword",
		`{"email":"alice@example.com"}`)

	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotBase != "http://localhost:8080/api/v1/users/resetPassword" {
		t.Fatalf("unexpected reset URL base: %s", gotBase)
	}
	if !strings.Contains(rec.Body.String(), "Password reset link sent to your email.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := &http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
