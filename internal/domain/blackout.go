package domain

import (
	"time"

	"github.com/google/uuid"
)

// BlackoutDate closes one campsite, or the whole campground when CampsiteID is
// nil, for every day in [StartDate, EndDate]. Both ends are inclusive.
type BlackoutDate struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CampsiteID     *uuid.UUID `json:"campsite_id,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	Reason         string     `json:"reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsGlobal reports whether the blackout applies to every campsite.
func (b BlackoutDate) IsGlobal() bool {
	return b.CampsiteID == nil
}

// AppliesTo reports whether the blackout covers campsiteID.
func (b BlackoutDate) AppliesTo(campsiteID uuid.UUID) bool {
	return b.CampsiteID == nil || *b.CampsiteID == campsiteID
}

// Blocks reports whether the blackout closes campsiteID for any night of
// [checkIn, checkOut).
func (b BlackoutDate) Blocks(campsiteID uuid.UUID, checkIn, checkOut time.Time) bool {
	return b.AppliesTo(campsiteID) && BlackoutOverlaps(checkIn, checkOut, b.StartDate, b.EndDate)
}
