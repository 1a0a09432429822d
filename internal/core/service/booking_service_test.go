package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

type stubTourByID struct {
	ports.TourRepository

	tour *domain.Tour
}

func (r *stubTourByID) FindByID(_ context.Context, id string) (*domain.Tour, error) {
	if r.tour != nil && r.tour.ID.Hex() == id {
		t := *r.tour
		return &t, nil
	}
	return nil, &domain.NotFoundError{Resource: "tour", ID: id}
}

type stubBookingStore struct {
	ports.BookingRepository

	inserted []domain.Booking
}

func (r *stubBookingStore) Insert(_ context.Context, doc *domain.Booking) (*domain.Booking, error) {
	copy := *doc
	copy.ID = primitive.NewObjectID()
	r.inserted = append(r.inserted, copy)
	return &copy, nil
}

type stubPayments struct {
	lastInput  ports.CheckoutInput
	completion *ports.CheckoutCompletion
	parseErr   error
}

func (p *stubPayments) CreateCheckoutSession(_ context.Context, in ports.CheckoutInput) (*ports.CheckoutSession, error) {
	p.lastInput = in
	return &ports.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (p *stubPayments) ParseWebhook([]byte, string) (*ports.CheckoutCompletion, error) {
	return p.completion, p.parseErr
}

func newCheckoutTour() *domain.Tour {
	return &domain.Tour{
		ID:         primitive.NewObjectID(),
		Name:       "The Forest Hiker",
		Slug:       "the-forest-hiker",
		Summary:    "A peaceful walk",
		ImageCover: "cover.jpg",
		Price:      497,
	}
}

func TestBookingService_Checkout(t *testing.T) {
	tour := newCheckoutTour()
	payments := &stubPayments{}
	svc := NewBookingService(&stubBookingStore{}, &stubTourByID{tour: tour}, nil, payments, zerolog.Nop())

	user := &domain.User{ID: primitive.NewObjectID(), Email: "alice@example.com"}
	session, err := svc.Checkout(context.Background(), tour.ID.Hex(), user, "http://localhost:8080")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if session.ID != "cs_test" {
		t.Fatalf("unexpected session: %+v", session)
	}

	in := payments.lastInput
	if in.AmountCents != 49700 {
		t.Fatalf("expected price in cents, got %d", in.AmountCents)
	}
	if in.CustomerEmail != "alice@example.com" {
		t.Fatalf("unexpected customer email: %s", in.CustomerEmail)
	}
	if in.CancelURL != "http://localhost:8080/tour/the-forest-hiker" {
		t.Fatalf("unexpected cancel URL: %s", in.CancelURL)
	}
}

func TestBookingService_Checkout_RoundsFractionalPrice(t *testing.T) {
	tour := newCheckoutTour()
	tour.Price = 19.99
	payments := &stubPayments{}
	svc := NewBookingService(&stubBookingStore{}, &stubTourByID{tour: tour}, nil, payments, zerolog.Nop())

	user := &domain.User{ID: primitive.NewObjectID(), Email: "alice@example.com"}
	if _, err := svc.Checkout(context.Background(), tour.ID.Hex(), user, "http://localhost:8080"); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 19.99 has no exact float64 representation; the amount must still come
	// out at 1999 cents, not the truncated 1998.
	if got := payments.lastInput.AmountCents; got != 1999 {
		t.Fatalf("AmountCents = %d, want 1999", got)
	}
}

func TestBookingService_Checkout_UnknownTour(t *testing.T) {
	svc := NewBookingService(&stubBookingStore{}, &stubTourByID{}, nil, &stubPayments{}, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), primitive.NewObjectID().Hex(), &domain.User{}, "http://localhost")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBookingService_Fulfil(t *testing.T) {
	tour := newCheckoutTour()
	users := newStubUserRepo()
	buyer, _ := users.Insert(context.Background(), &domain.User{
		Name: "Alice", Email: "alice@example.com", Active: true,
	})

	bookings := &stubBookingStore{}
	payments := &stubPayments{completion: &ports.CheckoutCompletion{
		TourID:        tour.ID.Hex(),
		CustomerEmail: "alice@example.com",
		AmountCents:   49700,
	}}
	svc := NewBookingService(bookings, &stubTourByID{tour: tour}, users, payments, zerolog.Nop())

	if err := svc.Fulfil(context.Background(), []byte(`{}`), "sig"); err != nil {
		t.Fatalf("fulfil failed: %v", err)
	}
	if len(bookings.inserted) != 1 {
		t.Fatalf("expected one booking, got %d", len(bookings.inserted))
	}

	b := bookings.inserted[0]
	if !b.Paid {
		t.Fatalf("expected booking marked paid")
	}
	if b.Price != 497 {
		t.Fatalf("expected price restored from cents, got %v", b.Price)
	}
	if b.User != buyer.ID || b.Tour != tour.ID {
		t.Fatalf("booking linked to wrong entities: %+v", b)
	}
	if b.Reference == "" {
		t.Fatalf("expected a booking reference")
	}
}

func TestBookingService_Fulfil_BadSignature(t *testing.T) {
	payments := &stubPayments{parseErr: errors.New("signature mismatch")}
	svc := NewBookingService(&stubBookingStore{}, &stubTourByID{}, newStubUserRepo(), payments, zerolog.Nop())

	err := svc.Fulfil(context.Background(), []byte(`{}`), "bad")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBookingService_Fulfil_IgnoredEvent(t *testing.T) {
	bookings := &stubBookingStore{}
	svc := NewBookingService(bookings, &stubTourByID{}, newStubUserRepo(), &stubPayments{}, zerolog.Nop())

	if err := svc.Fulfil(context.Background(), []byte(`{}`), "sig"); err != nil {
		t.Fatalf("expected ignored event to succeed, got %v", err)
	}
	if len(bookings.inserted) != 0 {
		t.Fatalf("expected no booking for ignored event")
	}
}
