// Package payment wraps the Stripe SDK behind the PaymentProvider port.
// Session creation and webhook signature verification are consumed from the
// provider, never reimplemented.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/natours/tour-booking-api/internal/core/ports"
)

type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the global Stripe client key and returns the
// provider. webhookSecret signs the webhook events we accept.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		CustomerEmail:      stripe.String(in.CustomerEmail),
		ClientReferenceID:  stripe.String(in.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(in.TourName),
						Description: stripe.String(in.TourSummary),
						Images:      stripe.StringSlice([]string{in.ImageURL}),
					},
				},
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session: %w", err)
	}

	return &ports.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the signature over the raw payload and extracts the
// checkout completion. Event types other than checkout.session.completed
// return (nil, nil).
func (p *StripeProvider) ParseWebhook(payload []byte, signatureHeader string) (*ports.CheckoutCompletion, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	email := ""
	if s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	if email == "" {
		email = s.CustomerEmail
	}

	return &ports.CheckoutCompletion{
		TourID:        s.ClientReferenceID,
		CustomerEmail: email,
		AmountCents:   s.AmountTotal,
	}, nil
}
