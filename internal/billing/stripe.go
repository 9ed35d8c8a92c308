// Package billing opens payment intents with Stripe for new bookings.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// StripeIntents creates PaymentIntents through the Stripe API.
type StripeIntents struct {
	client paymentintent.Client
	log    *slog.Logger
}

// NewStripeIntents constructs StripeIntents for secretKey. A nil backend
// uses Stripe's default API backend.
func NewStripeIntents(secretKey string, backend stripe.Backend, log *slog.Logger) *StripeIntents {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeIntents{client: paymentintent.Client{B: backend, Key: secretKey}, log: log}
}

// CreateIntent opens an intent for req. The organization and reservation
// ids travel in the intent metadata so a webhook can be checked against the
// reservation it claims to pay for. The reservation id is the idempotency
// key, so a retried booking transaction reuses the same intent.
func (s *StripeIntents) CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(domain.ToMinorUnits(req.Amount, req.Currency)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	params.Context = ctx
	params.AddMetadata(domain.MetaOrganizationID, req.OrganizationID.String())
	params.AddMetadata(domain.MetaReservationID, req.ReservationID.String())
	params.SetIdempotencyKey("reservation-" + req.ReservationID.String())

	pi, err := s.client.New(params)
	if err != nil {
		s.log.ErrorContext(ctx, "stripe: create payment intent failed",
			"reservation_id", req.ReservationID, "error", err)
		return domain.PaymentIntent{}, fmt.Errorf("billing.StripeIntents.CreateIntent: %w", err)
	}
	s.log.InfoContext(ctx, "stripe: payment intent created",
		"reservation_id", req.ReservationID, "payment_ref", pi.ID)
	return domain.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
