// Package service implements the business rules of the booking engine on top
// of the repo layer: tenant resolution, availability search, the write-path
// conflict guard and payment reconciliation.
package service

import (
	"time"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// Calendar supplies "today" in the campground's own time zone.
type Calendar struct {
	Loc *time.Location
	Now func() time.Time
}

// NewCalendar returns a Calendar on the wall clock in loc.
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Loc: loc, Now: time.Now}
}

// Today is the current calendar day.
func (c Calendar) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	return domain.Today(now(), loc)
}
