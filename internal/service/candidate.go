package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// validateStay enforces the input rules shared by every availability and
// booking operation. It runs before any storage access.
func validateStay(checkIn, checkOut time.Time, guests int) error {
	var errs []error
	if checkIn.IsZero() {
		errs = append(errs, domain.Invalid("check_in", "is required"))
	}
	if checkOut.IsZero() {
		errs = append(errs, domain.Invalid("check_out", "is required"))
	}
	if !checkIn.IsZero() && !checkOut.IsZero() && domain.NightsBetween(checkIn, checkOut) < 1 {
		errs = append(errs, domain.Invalid("check_out", "must be after check_in"))
	}
	if guests < 1 {
		errs = append(errs, domain.Invalid("guests", "must be at least 1"))
	}
	return errors.Join(errs...)
}

// evaluateCandidate answers whether site can take the stay in req, reading
// current storage state through r. exclude is left out of the reservation
// conflict set so a reservation never conflicts with itself.
//
// A negative answer is a result, not an error. Errors are storage failures
// and domain.ErrNotFound for a campsite outside orgID.
func evaluateCandidate(ctx context.Context, r repo.Repos, orgID uuid.UUID, req domain.AvailabilityRequest,
	ov domain.Overrides, today time.Time, exclude *uuid.UUID) (domain.AvailabilityResult, domain.Campsite, error) {

	site, err := r.Campsites.GetByID(ctx, orgID, req.CampsiteID)
	if err != nil {
		return domain.AvailabilityResult{}, domain.Campsite{}, err
	}

	if !site.IsActive {
		return domain.Unavailable(domain.ReasonInactive, nil), site, nil
	}
	if req.Guests > site.MaxGuests {
		return domain.Unavailable(domain.ReasonCapacityExceeded, nil), site, nil
	}
	if !ov.AllowPastCheckIn && req.CheckIn.Before(today) {
		return domain.Unavailable(domain.ReasonPastCheckIn, nil), site, nil
	}

	if !ov.SkipConflictCheck {
		busy, err := r.Reservations.FindOverlapping(ctx, orgID, []uuid.UUID{site.ID}, req.CheckIn, req.CheckOut, exclude)
		if err != nil {
			return domain.AvailabilityResult{}, site, err
		}
		if len(busy) > 0 {
			id := busy[0].ID
			return domain.Unavailable(domain.ReasonReservationConflict, &domain.ConflictError{
				Kind:          domain.ConflictReservation,
				ReservationID: &id,
				Start:         busy[0].CheckIn,
				End:           busy[0].CheckOut,
			}), site, nil
		}
	}

	if !ov.SkipBlackoutCheck {
		closed, err := r.Blackouts.FindOverlapping(ctx, orgID, []uuid.UUID{site.ID}, req.CheckIn, req.CheckOut)
		if err != nil {
			return domain.AvailabilityResult{}, site, err
		}
		if len(closed) > 0 {
			id := closed[0].ID
			return domain.Unavailable(domain.ReasonBlackoutConflict, &domain.ConflictError{
				Kind:       domain.ConflictBlackout,
				BlackoutID: &id,
				Start:      closed[0].StartDate,
				End:        closed[0].EndDate,
			}), site, nil
		}
	}

	return domain.Available, site, nil
}

// rejection turns a negative availability answer into the error a write
// returns: a *domain.ConflictError for collisions, a validation error for
// everything else.
func rejection(res domain.AvailabilityResult) error {
	switch res.Reason {
	case domain.ReasonReservationConflict, domain.ReasonBlackoutConflict:
		return res.Conflict
	case domain.ReasonCapacityExceeded:
		return domain.Invalid("guests", res.Reason.Message())
	case domain.ReasonPastCheckIn:
		return domain.Invalid("check_in", res.Reason.Message())
	default:
		return domain.Invalid("campsite_id", res.Reason.Message())
	}
}

// checkUnitFit rejects an assignment whose unit does not suit the site.
func checkUnitFit(site domain.Campsite, unit domain.SiteType, rvLength *int) error {
	if !site.Type.Accepts(unit) {
		return domain.Invalid("unit_type", fmt.Sprintf("a %s cannot use a %s site", unit, site.Type))
	}
	if !site.FitsRV(rvLength) {
		return domain.Invalid("rv_length", fmt.Sprintf("site %s takes RVs up to %d ft", site.Code, *site.MaxRVLength))
	}
	return nil
}
