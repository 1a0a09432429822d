package ports

import (
	"context"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

// Mailer hands messages to the outbound email transport. Delivery mechanics
// and templates live outside this system.
type Mailer interface {
	SendWelcome(ctx context.Context, user *domain.User, url string) error
	SendPasswordReset(ctx context.Context, user *domain.User, resetURL string) error
}

// CheckoutInput describes a checkout session to be created by the payment
// provider.
type CheckoutInput struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider's session handle returned to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutCompletion is the fulfilment data extracted from a verified
// webhook event. Nil is returned by ParseWebhook for event types that do not
// complete a checkout.
type CheckoutCompletion struct {
	TourID        string
	CustomerEmail string
	AmountCents   int64
}

// PaymentProvider is the external payment collaborator. Its session and
// webhook cryptography are consumed, not reimplemented.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	// ParseWebhook verifies the signature over the raw, unparsed body and
	// extracts the completion, if the event completes a checkout.
	ParseWebhook(payload []byte, signatureHeader string) (*CheckoutCompletion, error)
}
