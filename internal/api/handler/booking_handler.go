package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/api/metrics"
	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
	"github.com/natours/tour-booking-api/internal/core/service"
)

// WebhookPath receives the payment provider's events. The route is excluded
// from body sanitization: signature verification needs the raw bytes.
const WebhookPath = "/webhook-checkout"

type BookingHandler struct {
	res     *Resource[domain.Booking]
	svc     *service.BookingService
	baseURL string
}

func NewBookingHandler(repo ports.BookingRepository, svc *service.BookingService, baseURL string) *BookingHandler {
	h := &BookingHandler{svc: svc, baseURL: baseURL}
	h.res = &Resource[domain.Booking]{
		Name:        "booking",
		Plural:      "bookings",
		Repo:        repo,
		Decode:      decodeBooking,
		DecodePatch: decodeBookingPatch,
	}
	return h
}

type updateBookingRequest struct {
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
	Paid  *bool    `json:"paid"`
}

func decodeBookingPatch(c echo.Context) (bson.M, error) {
	var req updateBookingRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	patch := bson.M{}
	if req.Price != nil {
		patch["price"] = *req.Price
	}
	if req.Paid != nil {
		patch["paid"] = *req.Paid
	}
	return patch, nil
}

type createBookingRequest struct {
	Tour  string  `json:"tour" validate:"required"`
	User  string  `json:"user" validate:"required"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Paid  bool    `json:"paid"`
}

func decodeBooking(c echo.Context) (*domain.Booking, error) {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	tourID, err := primitive.ObjectIDFromHex(req.Tour)
	if err != nil {
		return nil, &domain.ValidationError{Message: "booking must belong to a tour"}
	}
	userID, err := primitive.ObjectIDFromHex(req.User)
	if err != nil {
		return nil, &domain.ValidationError{Message: "booking must belong to a user"}
	}

	now := time.Now().UTC()
	return &domain.Booking{
		Tour:      tourID,
		User:      userID,
		Price:     req.Price,
		Paid:      req.Paid,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MyBookings lists the authenticated principal's own bookings, backing the
// "my tours" view.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}

	scoped := *h.res
	scoped.BaseFilter = func(echo.Context) bson.M {
		return bson.M{"user": user.ID}
	}
	return scoped.List(c)
}

func (h *BookingHandler) List(c echo.Context) error   { return h.res.List(c) }
func (h *BookingHandler) Get(c echo.Context) error    { return h.res.Get(c) }
func (h *BookingHandler) Create(c echo.Context) error { return h.res.Create(c) }
func (h *BookingHandler) Update(c echo.Context) error { return h.res.Update(c) }
func (h *BookingHandler) Delete(c echo.Context) error { return h.res.Delete(c) }

// Checkout creates a payment-provider session for the tour on behalf of the
// authenticated principal.
func (h *BookingHandler) Checkout(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrNotLoggedIn
	}

	session, err := h.svc.Checkout(c.Request().Context(), c.Param("tourId"), user, h.baseURL)
	if err != nil {
		metrics.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CheckoutSessionsTotal.WithLabelValues("created").Inc()
	return respond(c, http.StatusOK, "session", session)
}

// Webhook consumes a provider event. The body is read raw; the provider
// verifies the signature over exactly these bytes.
func (h *BookingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.svc.Fulfil(c.Request().Context(), payload, sig); err != nil {
		return err
	}
	metrics.BookingsFulfilledTotal.Inc()

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
