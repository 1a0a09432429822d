package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// BookingService creates payment-provider checkout sessions and fulfils
// bookings from verified webhook events.
type BookingService struct {
	bookings ports.BookingRepository
	tours    ports.TourRepository
	users    ports.UserRepository
	payments ports.PaymentProvider
	logger   zerolog.Logger
}

func NewBookingService(bookings ports.BookingRepository, tours ports.TourRepository, users ports.UserRepository, payments ports.PaymentProvider, logger zerolog.Logger) *BookingService {
	return &BookingService{bookings: bookings, tours: tours, users: users, payments: payments, logger: logger}
}

// Checkout creates a checkout session for the tour on behalf of the user.
// baseURL is the externally visible origin used for redirect URLs.
func (s *BookingService) Checkout(ctx context.Context, tourID string, user *domain.User, baseURL string) (*ports.CheckoutSession, error) {
	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, ports.CheckoutInput{
		TourID:        tour.ID.Hex(),
		TourName:      fmt.Sprintf("%s Tour", tour.Name),
		TourSummary:   tour.Summary,
		ImageURL:      fmt.Sprintf("%s/public/img/tours/%s", baseURL, tour.ImageCover),
		AmountCents:   int64(math.Round(tour.Price * 100)),
		Currency:      "usd",
		CustomerEmail: user.Email,
		SuccessURL:    fmt.Sprintf("%s/my-tours", baseURL),
		CancelURL:     fmt.Sprintf("%s/tour/%s", baseURL, tour.Slug),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info().Str("tour", tour.ID.Hex()).Str("user", user.ID.Hex()).Msg("checkout session created")
	return session, nil
}

// Fulfil records a paid booking from a verified checkout completion. Payload
// and signature header come straight off the raw webhook request body.
func (s *BookingService) Fulfil(ctx context.Context, payload []byte, signatureHeader string) error {
	completion, err := s.payments.ParseWebhook(payload, signatureHeader)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("webhook error: %v", err)}
	}
	if completion == nil {
		// Event type we do not act on.
		return nil
	}

	tour, err := s.tours.FindByID(ctx, completion.TourID)
	if err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, completion.CustomerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return &domain.ValidationError{Message: "checkout customer is not a known user"}
		}
		return err
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		Tour:      tour.ID,
		User:      user.ID,
		Price:     float64(completion.AmountCents) / 100,
		Reference: uuid.NewString(),
		Paid:      true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.bookings.Insert(ctx, booking); err != nil {
		return err
	}

	s.logger.Info().
		Str("tour", tour.ID.Hex()).
		Str("user", user.ID.Hex()).
		Str("reference", booking.Reference).
		Msg("booking fulfilled")
	return nil
}
