package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
	"github.com/natours/tour-booking-api/internal/core/service"
)

// UserHandler serves the self-service account routes plus the admin CRUD
// factory over users.
type UserHandler struct {
	res *Resource[domain.User]
	svc *service.UserService
}

func NewUserHandler(repo ports.UserRepository, svc *service.UserService) *UserHandler {
	h := &UserHandler{svc: svc}
	h.res = &Resource[domain.User]{
		Name:   "user",
		Plural: "users",
		Repo:   repo,
		// Admin patch; passwords still never travel this route.
		DecodePatch: decodeUserPatch,
	}
	return h
}

func (h *UserHandler) List(c echo.Context) error   { return h.res.List(c) }
func (h *UserHandler) Get(c echo.Context) error    { return h.res.Get(c) }
func (h *UserHandler) Update(c echo.Context) error { return h.res.Update(c) }
func (h *UserHandler) Delete(c echo.Context) error { return h.res.Delete(c) }

// Create exists only to point clients at /signup.
func (h *UserHandler) Create(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, messageResponse{
		Status:  "error",
		Message: "This route does not exist. Please use /signup instead",
	})
}

// GetMe reuses the factory get with the principal's own id.
func (h *UserHandler) GetMe(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	return h.res.Get(c)
}

// UpdateMe applies the allow-listed self-update. Password fields are
// rejected; /updateMyPassword owns those.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}

	in, err := bindUpdateMe(c, user)
	if err != nil {
		return err
	}

	updated, err := h.svc.UpdateMe(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user", updated)
}

// DeleteMe soft-deactivates the account.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}
	if err := h.svc.DeactivateMe(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// updateUserRequest re-runs the signup field rules on whichever fields the
// patch touches.
type updateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Photo *string `json:"photo"`
}

func decodeUserPatch(c echo.Context) (bson.M, error) {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	patch := bson.M{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Email != nil {
		patch["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		patch["role"] = *req.Role
	}
	if req.Photo != nil {
		patch["photo"] = *req.Photo
	}
	return patch, nil
}

func bindUpdateMe(c echo.Context, user *domain.User) (service.UpdateMeInput, error) {
	var in service.UpdateMeInput

	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		in.Name = c.FormValue("name")
		in.Email = c.FormValue("email")
		if c.FormValue("password") != "" || c.FormValue("passwordConfirm") != "" {
			return in, domain.ErrPasswordRouteMisuse
		}

		photo, err := acceptAvatar(c, user)
		if err != nil {
			return in, err
		}
		in.Photo = photo
		return in, validateUpdateMe(c, in)
	}

	raw := map[string]any{}
	if err := c.Bind(&raw); err != nil {
		return in, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if _, ok := raw["password"]; ok {
		return in, domain.ErrPasswordRouteMisuse
	}
	if _, ok := raw["passwordConfirm"]; ok {
		return in, domain.ErrPasswordRouteMisuse
	}

	in.Name, _ = raw["name"].(string)
	in.Email, _ = raw["email"].(string)
	return in, validateUpdateMe(c, in)
}

// validateUpdateMe re-checks the email format on self-updates; the other
// self-service fields carry no format rules.
func validateUpdateMe(c echo.Context, in service.UpdateMeInput) error {
	if in.Email == "" {
		return nil
	}
	return c.Validate(&updateUserRequest{Email: &in.Email})
}

// acceptAvatar enforces the image MIME filter on an optional avatar upload
// and returns the filename to store. Resizing/storage mechanics live outside
// this system.
func acceptAvatar(c echo.Context, user *domain.User) (string, error) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		// No file attached.
		return "", nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}

	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return "", &domain.ValidationError{Message: "Not an image, please upload an image."}
	}

	first := strings.ToLower(strings.SplitN(user.Name, " ", 2)[0])
	return fmt.Sprintf("%s-%s-%d.webp", first, user.ID.Hex(), time.Now().UnixMilli()), nil
}
