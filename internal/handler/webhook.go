package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// maxWebhookBytes bounds the payload read before signature verification.
const maxWebhookBytes = 65536

// WebhookResponse reports what the reconciler did with an event.
type WebhookResponse struct {
	Status string `json:"status"`
}

// StripeWebhook handles POST /api/webhooks/stripe.
// The signature is verified before anything else; unsigned or tampered
// payloads get 400. Storage failures answer 500 so the provider retries.
func (s *Server) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("could not read request body"))
		return
	}
	if len(payload) > maxWebhookBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", "request body is too large"))
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), s.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.Log.WarnContext(r.Context(), "stripe webhook: signature verification failed", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_signature", "webhook signature verification failed"))
		return
	}

	ev, err := toPaymentEvent(event)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	result, err := s.Payments.HandlePaymentEvent(r.Context(), ev)
	if err != nil {
		s.respondError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, WebhookResponse{Status: string(result)})
}

// toPaymentEvent reduces a verified Stripe event to a domain.PaymentEvent.
// Only PaymentIntent events carry a payment reference; other types are
// passed on with just their id and type so the reconciler can ignore them.
func toPaymentEvent(event stripe.Event) (domain.PaymentEvent, error) {
	ev := domain.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		return ev, nil
	}
	if event.Data == nil {
		return ev, errors.New("event has no data object")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return ev, errors.New("event data is not a payment intent")
	}
	ev.PaymentRef = pi.ID
	ev.Currency = strings.ToLower(string(pi.Currency))
	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	ev.Amount = domain.FromMinorUnits(amount, ev.Currency)
	ev.OrganizationID = metadataID(pi.Metadata, domain.MetaOrganizationID)
	ev.ReservationID = metadataID(pi.Metadata, domain.MetaReservationID)
	return ev, nil
}

// metadataID parses metadata[key] as a UUID. Missing or malformed values are
// uuid.Nil, which never matches a reservation.
func metadataID(metadata map[string]string, key string) uuid.UUID {
	id, err := uuid.Parse(metadata[key])
	if err != nil {
		return uuid.Nil
	}
	return id
}
