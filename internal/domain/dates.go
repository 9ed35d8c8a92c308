package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// Calendar days are carried as time.Time values at midnight UTC. UTC here is
// only an encoding: the value names a day, not an instant, and it is what
// pgtype.Date produces when scanning a DATE column. Values built from wall
// clocks must go through Today or DateOf so the local calendar day is kept.

// ParseDate parses a YYYY-MM-DD string into a calendar day.
// The components are read as written; no timezone shift is applied.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrValidation, s)
	}
	return t, nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DateOf returns the calendar day t falls on in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is DateOf(now, loc). A guest in a zone west of UTC booking late in the
// evening still sees their own date as "today".
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOf(now, loc)
}

// AddDays shifts a calendar day by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// NightsBetween returns the number of nights in [checkIn, checkOut).
// It is 0 for identical dates and negative when checkOut precedes checkIn;
// callers treat anything below 1 as invalid. The count is taken on the
// calendar, so DST transitions in the caller's zone cannot add or drop a night.
func NightsBetween(checkIn, checkOut time.Time) int {
	in := DateOf(checkIn, checkIn.Location())
	out := DateOf(checkOut, checkOut.Location())
	return int(out.Sub(in).Hours() / 24)
}

// RangesOverlap reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Checkout is exclusive: a stay ending on day D and one starting on day D
// do not overlap.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

// BlackoutOverlaps reports whether the stay [checkIn, checkOut) touches the
// inclusive window [start, end]. The window is widened by one day so it can be
// compared with the same exclusive-end rule as stays.
func BlackoutOverlaps(checkIn, checkOut, start, end time.Time) bool {
	return RangesOverlap(checkIn, checkOut, start, AddDays(end, 1))
}
