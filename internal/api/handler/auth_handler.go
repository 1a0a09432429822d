package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// AuthHandler serves the credential lifecycle: signup, login, logout, and
// the password forgot/reset/update flows.
type AuthHandler struct {
	auth         ports.AuthService
	cookieTTL    time.Duration
	secureCookie bool
	baseURL      string
}

func NewAuthHandler(auth ports.AuthService, cookieTTL time.Duration, secureCookie bool, baseURL string) *AuthHandler {
	return &AuthHandler{auth: auth, cookieTTL: cookieTTL, secureCookie: secureCookie, baseURL: baseURL}
}

type signupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// authResponse carries the credential in the body alongside the cookie.
type authResponse struct {
	Status string         `json:"status"`
	Token  string         `json:"token"`
	Data   map[string]any `json:"data"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.auth.Signup(c.Request().Context(), ports.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}

	return h.sendToken(c, http.StatusCreated, token, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.sendToken(c, http.StatusOK, token, user)
}

// Logout instructs the client to discard the credential cookie. There is no
// server-side revocation list; expiry and the password-change check carry
// the security.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "loggedOut",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, messageResponse{Status: "success"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resetURLBase := h.baseURL + "/api/v1/users/resetPassword"
	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email, resetURLBase); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Status:  "success",
		Message: "Password reset link sent to your email.",
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.auth.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}

	return h.sendToken(c, http.StatusOK, token, user)
}

func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, updated, err := h.auth.UpdatePassword(c.Request().Context(), user, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}

	return h.sendToken(c, http.StatusOK, token, updated)
}

// sendToken writes the credential cookie and the auth envelope. The cookie
// lives at least as long as the credential itself.
func (h *AuthHandler) sendToken(c echo.Context, code int, token string, user *domain.User) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(code, authResponse{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}
