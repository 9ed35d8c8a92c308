package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// AvailabilityService answers read-only availability questions. Its answers
// are advisory: the conflict guard in ReservationService re-checks at write
// time inside the writing transaction.
type AvailabilityService struct {
	store repo.Store
	cal   Calendar
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(store repo.Store, cal Calendar) *AvailabilityService {
	return &AvailabilityService{store: store, cal: cal}
}

// Search returns, in sort order, the active campsites in orgID that can host
// the stay and are free of blocking reservations and blackouts.
// Always returns a non-nil slice on success.
func (s *AvailabilityService) Search(ctx context.Context, orgID uuid.UUID, c domain.SearchCriteria) ([]domain.Campsite, error) {
	if err := requirePublicTenant(orgID); err != nil {
		return nil, fmt.Errorf("service.AvailabilityService.Search: %w", err)
	}
	if err := validateSearch(c, s.cal); err != nil {
		return nil, err
	}

	var types []domain.SiteType
	if c.UnitType != nil {
		types = domain.CompatibleSiteTypes(*c.UnitType)
	}

	r := s.store.Repos()
	candidates, err := r.Campsites.ListSearchCandidates(ctx, orgID, c.Guests, types)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityService.Search: %w", err)
	}

	sites := make([]domain.Campsite, 0, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, site := range candidates {
		if site.FitsRV(c.RVLength) {
			sites = append(sites, site)
			ids = append(ids, site.ID)
		}
	}
	if len(sites) == 0 {
		return []domain.Campsite{}, nil
	}

	busy, err := r.Reservations.FindOverlapping(ctx, orgID, ids, c.CheckIn, c.CheckOut, nil)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityService.Search: %w", err)
	}
	closed, err := r.Blackouts.FindOverlapping(ctx, orgID, ids, c.CheckIn, c.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityService.Search: %w", err)
	}

	taken := make(map[uuid.UUID]bool, len(busy))
	for _, res := range busy {
		if res.Occupies(c.CheckIn, c.CheckOut) {
			taken[*res.CampsiteID] = true
		}
	}

	out := make([]domain.Campsite, 0, len(sites))
	for _, site := range sites {
		if taken[site.ID] || blockedByAny(closed, site.ID, c) {
			continue
		}
		out = append(out, site)
	}
	return out, nil
}

func blockedByAny(blackouts []domain.BlackoutDate, campsiteID uuid.UUID, c domain.SearchCriteria) bool {
	for _, b := range blackouts {
		if b.Blocks(campsiteID, c.CheckIn, c.CheckOut) {
			return true
		}
	}
	return false
}

// Check is the guest-facing single-campsite check. It has no overrides.
func (s *AvailabilityService) Check(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest) (domain.AvailabilityResult, error) {
	if err := requirePublicTenant(orgID); err != nil {
		return domain.AvailabilityResult{}, fmt.Errorf("service.AvailabilityService.Check: %w", err)
	}
	return s.check(ctx, orgID, req, domain.Overrides{}, "service.AvailabilityService.Check")
}

// CheckAdmin is the operator single-campsite check. ov may waive the
// reservation conflict, blackout and past check-in checks.
func (s *AvailabilityService) CheckAdmin(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest, ov domain.Overrides) (domain.AvailabilityResult, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.AvailabilityResult{}, fmt.Errorf("service.AvailabilityService.CheckAdmin: %w", err)
	}
	return s.check(ctx, orgID, req, ov, "service.AvailabilityService.CheckAdmin")
}

func (s *AvailabilityService) check(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest, ov domain.Overrides, op string) (domain.AvailabilityResult, error) {
	if err := validateStay(req.CheckIn, req.CheckOut, req.Guests); err != nil {
		return domain.AvailabilityResult{}, err
	}
	res, _, err := evaluateCandidate(ctx, s.store.Repos(), orgID, req, ov, s.cal.Today(), nil)
	if err != nil {
		return domain.AvailabilityResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func validateSearch(c domain.SearchCriteria, cal Calendar) error {
	errs := []error{validateStay(c.CheckIn, c.CheckOut, c.Guests)}
	if !c.CheckIn.IsZero() && c.CheckIn.Before(cal.Today()) {
		errs = append(errs, domain.Invalid("check_in", domain.ReasonPastCheckIn.Message()))
	}
	if c.RVLength != nil && *c.RVLength < 1 {
		errs = append(errs, domain.Invalid("rv_length", "must be a positive number of feet"))
	}
	if c.UnitType != nil && !c.UnitType.Valid() {
		errs = append(errs, domain.Invalid("unit_type", "unknown unit type"))
	}
	return errors.Join(errs...)
}
