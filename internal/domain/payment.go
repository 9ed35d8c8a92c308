package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of one payment attempt.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnSucceeded TransactionStatus = "succeeded"
	TxnFailed    TransactionStatus = "failed"
	TxnRefunded  TransactionStatus = "refunded"
)

// TransactionType says what a payment attempt was for.
type TransactionType string

const (
	TxnFull    TransactionType = "full"
	TxnDeposit TransactionType = "deposit"
	TxnRefund  TransactionType = "refund"
)

// PaymentTransaction is one provider payment attempt tied to a reservation.
// ProviderRef is the payment intent id; it is also stored on the reservation.
type PaymentTransaction struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	ReservationID  uuid.UUID         `json:"reservation_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Status         TransactionStatus `json:"status"`
	Type           TransactionType   `json:"type"`
	ProviderRef    string            `json:"provider_ref"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Payment event types the reconciler acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys written on every payment intent the booking flow opens.
const (
	MetaOrganizationID = "organization_id"
	MetaReservationID  = "reservation_id"
)

// IntentRequest asks the payment provider to open an intent for the amount
// due at booking time on one reservation.
type IntentRequest struct {
	OrganizationID uuid.UUID
	ReservationID  uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	ReceiptEmail   string
}

// PaymentIntent is the provider's answer. ClientSecret lets the guest's
// browser confirm the payment and is never stored.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentEvent is a provider event after signature verification, reduced to
// the fields the reconciler needs. OrganizationID and ReservationID come from
// the intent metadata and are uuid.Nil when it is missing or unparsable.
type PaymentEvent struct {
	ID             string
	Type           string
	PaymentRef     string
	Amount         decimal.Decimal
	Currency       string
	OrganizationID uuid.UUID
	ReservationID  uuid.UUID
}

// BelongsTo reports whether the event's metadata names r. An event without
// metadata belongs to nothing.
func (e PaymentEvent) BelongsTo(r Reservation) bool {
	return e.OrganizationID != uuid.Nil &&
		e.OrganizationID == r.OrganizationID &&
		e.ReservationID == r.ID
}

// zeroDecimal and threeDecimal list the currencies whose minor unit is not a
// hundredth.
var (
	zeroDecimal = map[string]bool{
		"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
		"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
		"vuv": true, "xaf": true, "xof": true, "xpf": true,
	}
	threeDecimal = map[string]bool{"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true}
)

// CurrencyExponent is the number of decimal places in currency's minor unit.
func CurrencyExponent(currency string) int32 {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimal[c]:
		return 0
	case threeDecimal[c]:
		return 3
	}
	return 2
}

// FromMinorUnits converts a provider amount such as 4500 (cents) to 45.00.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent(currency))
}

// ToMinorUnits converts 45.00 to 4500 for a two-decimal currency, rounding
// half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(CurrencyExponent(currency)).Round(0).IntPart()
}

// WebhookResult is the outcome reported for a payment event.
type WebhookResult string

const (
	WebhookProcessedSuccess     WebhookResult = "processed_success"
	WebhookProcessedFailure     WebhookResult = "processed_failure"
	WebhookUnmatchedReservation WebhookResult = "unmatched_reservation"
	WebhookIdempotentIgnore     WebhookResult = "idempotent_ignore"
	WebhookIgnored              WebhookResult = "ignored"
)
