package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus summarizes the money side of a reservation.
type PaymentStatus string

const (
	PaymentUnpaid      PaymentStatus = "unpaid"
	PaymentDepositPaid PaymentStatus = "deposit_paid"
	PaymentPaid        PaymentStatus = "paid"
	PaymentRefunded    PaymentStatus = "refunded"
)

// Reservation is a booking of one stay [CheckIn, CheckOut).
// CampsiteID is nil while the booking is unassigned.
type Reservation struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	GuestFirstName string            `json:"guest_first_name"`
	GuestLastName  string            `json:"guest_last_name"`
	GuestEmail     string            `json:"guest_email"`
	GuestPhone     string            `json:"guest_phone,omitempty"`
	CheckIn        time.Time         `json:"check_in"`
	CheckOut       time.Time         `json:"check_out"`
	Adults         int               `json:"adults"`
	Children       int               `json:"children"`
	UnitType       SiteType          `json:"unit_type"`
	RVLength       *int              `json:"rv_length,omitempty"`
	CampsiteID     *uuid.UUID        `json:"campsite_id,omitempty"`
	Status         ReservationStatus `json:"status"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	PaymentRef     *string           `json:"payment_ref,omitempty"`
	PaymentStatus  PaymentStatus     `json:"payment_status"`
	AmountPaid     decimal.Decimal   `json:"amount_paid"`
	BalanceDue     decimal.Decimal   `json:"balance_due"`
	PolicySnapshot json.RawMessage   `json:"policy_snapshot,omitempty"`
	RemainderDueAt *time.Time        `json:"remainder_due_at,omitempty"`
	ArchivedAt     *time.Time        `json:"archived_at,omitempty"`
	EditTokenHash  string            `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Guests is the head count used for capacity checks.
func (r Reservation) Guests() int {
	return r.Adults + r.Children
}

// Nights is the number of nights booked.
func (r Reservation) Nights() int {
	return NightsBetween(r.CheckIn, r.CheckOut)
}

// Occupies reports whether r holds its campsite during [checkIn, checkOut).
func (r Reservation) Occupies(checkIn, checkOut time.Time) bool {
	return r.CampsiteID != nil &&
		IsBlockingStatus(r.Status) &&
		RangesOverlap(r.CheckIn, r.CheckOut, checkIn, checkOut)
}

// ReservationFilter narrows the admin reservation list.
// Zero values mean "no filter".
type ReservationFilter struct {
	Status          ReservationStatus
	CampsiteID      *uuid.UUID
	From            *time.Time // stays ending after From
	To              *time.Time // stays starting before To
	IncludeArchived bool
}

// Assignment is a requested change to a reservation's (campsite, dates) triple.
// Nil fields keep the current value. Unassign clears the campsite.
type Assignment struct {
	CampsiteID *uuid.UUID
	Unassign   bool
	CheckIn    *time.Time
	CheckOut   *time.Time
}
