package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchCriteria is a guest-facing availability search.
type SearchCriteria struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	RVLength *int
	UnitType *SiteType
}

// AvailabilityRequest asks whether one campsite can take a stay.
type AvailabilityRequest struct {
	CampsiteID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}

// Overrides are admin-only switches on the single-campsite check. The public
// path has no way to construct them.
type Overrides struct {
	SkipConflictCheck bool
	SkipBlackoutCheck bool
	AllowPastCheckIn  bool
}

// UnavailableReason explains a negative availability answer.
type UnavailableReason string

const (
	ReasonInactive            UnavailableReason = "campsite_inactive"
	ReasonCapacityExceeded    UnavailableReason = "capacity_exceeded"
	ReasonReservationConflict UnavailableReason = "reservation_conflict"
	ReasonBlackoutConflict    UnavailableReason = "blackout_conflict"
	ReasonPastCheckIn         UnavailableReason = "check_in_in_past"
)

var reasonMessages = map[UnavailableReason]string{
	ReasonInactive:            "This campsite is not currently available for booking.",
	ReasonCapacityExceeded:    "This campsite cannot accommodate that many guests.",
	ReasonReservationConflict: "This campsite is already reserved for some of those dates.",
	ReasonBlackoutConflict:    "This campsite is closed for some of those dates.",
	ReasonPastCheckIn:         "Check-in date cannot be in the past.",
}

// Message is the human-readable text for r.
func (r UnavailableReason) Message() string {
	return reasonMessages[r]
}

// AvailabilityResult is the answer to a single-campsite check. On a conflict,
// Conflict identifies the reservation or blackout in the way.
type AvailabilityResult struct {
	Available bool
	Reason    UnavailableReason
	Conflict  *ConflictError
}

// Available is the positive result.
var Available = AvailabilityResult{Available: true}

// Unavailable builds a negative result.
func Unavailable(reason UnavailableReason, conflict *ConflictError) AvailabilityResult {
	return AvailabilityResult{Reason: reason, Conflict: conflict}
}
