package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist inside the caller's organization.
// Handlers should map this to HTTP 404. Public tenant-resolution failures are
// reported as ErrNotFound too so tenant existence is never leaked.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (missing dates, non-positive guest count, check-out not after check-in).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an authenticated admin has no organization,
// or tries to act outside of it. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is the sentinel behind every ConflictError and behind storage
// conflicts that carry no booking detail (e.g. deleting a referenced campsite).
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ValidationError reports a single invalid field.
// Several may be combined with errors.Join; FieldErrors recovers all of them.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for &ValidationError{Field: field, Message: msg}.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// FieldErrors walks err (including errors.Join trees and %w chains) and
// returns every ValidationError it contains, in order.
func FieldErrors(err error) []ValidationError {
	var out []ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*ValidationError); ok {
			out = append(out, *ve)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// ConflictKind identifies what a write collided with.
type ConflictKind string

const (
	ConflictReservation ConflictKind = "reservation"
	ConflictBlackout    ConflictKind = "blackout"
	// ConflictConcurrentWrite means another transaction committed an
	// overlapping change first. The caller should re-read and decide again.
	ConflictConcurrentWrite ConflictKind = "concurrent_write"
)

// ConflictError is returned by the conflict guard when a create, reassignment
// or reschedule would overlap a blocking reservation or a blackout.
// ReservationID or BlackoutID is set depending on Kind; Start/End are the
// dates of the thing collided with when known.
type ConflictError struct {
	Kind          ConflictKind
	ReservationID *uuid.UUID
	BlackoutID    *uuid.UUID
	Start         time.Time
	End           time.Time
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString("conflict: ")
	b.WriteString(string(e.Kind))
	switch {
	case e.ReservationID != nil:
		fmt.Fprintf(&b, " %s", e.ReservationID)
	case e.BlackoutID != nil:
		fmt.Fprintf(&b, " %s", e.BlackoutID)
	}
	if !e.Start.IsZero() {
		fmt.Fprintf(&b, " [%s, %s]", FormatDate(e.Start), FormatDate(e.End))
	}
	return b.String()
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
