package domain

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusNoShow     ReservationStatus = "no_show"
)

// blockingStatuses is the one place the blocking set is defined.
// The reservations exclusion constraint in migrations lists the same values.
var blockingStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

// IsBlockingStatus reports whether a reservation in status s occupies its
// campsite for conflict purposes.
func IsBlockingStatus(s ReservationStatus) bool {
	for _, b := range blockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// BlockingStatusValues returns the blocking set as strings, ready to bind to
// a `status = ANY(@statuses)` predicate.
func BlockingStatusValues() []string {
	out := make([]string, len(blockingStatuses))
	for i, s := range blockingStatuses {
		out[i] = string(s)
	}
	return out
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether s is an end state (cancelled, no_show, checked_out).
func (s ReservationStatus) IsTerminal() bool {
	return s.Valid() && !IsBlockingStatus(s)
}

// statusTransitions lists the operator-driven moves. None of them enters a
// blocking status from a non-blocking one, so they never need the conflict guard.
var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCheckedOut},
}

// CanTransition reports whether a reservation may move from one status to another.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
