package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/audit"
	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// BlackoutService manages operator-declared closures.
type BlackoutService struct {
	store repo.Store
	audit audit.Logger
}

// NewBlackoutService constructs a BlackoutService.
func NewBlackoutService(store repo.Store, auditLog audit.Logger) *BlackoutService {
	return &BlackoutService{store: store, audit: auditLog}
}

// Create stores a blackout and returns the blocking reservations it overlaps.
// Those are warnings for the operator to resolve; they do not prevent the
// blackout, and the reservations are left untouched.
func (s *BlackoutService) Create(ctx context.Context, orgID, userID uuid.UUID, b domain.BlackoutDate) (domain.BlackoutDate, []domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.BlackoutDate{}, nil, fmt.Errorf("service.BlackoutService.Create: %w", err)
	}
	if err := validateBlackout(b); err != nil {
		return domain.BlackoutDate{}, nil, err
	}
	b.OrganizationID = orgID
	b.Reason = strings.TrimSpace(b.Reason)

	r := s.store.Repos()
	var scope []uuid.UUID
	if b.CampsiteID != nil {
		if _, err := r.Campsites.GetByID(ctx, orgID, *b.CampsiteID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.BlackoutDate{}, nil, domain.Invalid("campsite_id", "unknown campsite")
			}
			return domain.BlackoutDate{}, nil, fmt.Errorf("service.BlackoutService.Create: %w", err)
		}
		scope = []uuid.UUID{*b.CampsiteID}
	}

	created, err := r.Blackouts.Create(ctx, b)
	if err != nil {
		return domain.BlackoutDate{}, nil, fmt.Errorf("service.BlackoutService.Create: %w", err)
	}

	// The blackout end is inclusive; reservation ranges are half-open.
	affected, err := r.Reservations.FindOverlapping(ctx, orgID, scope, created.StartDate, domain.AddDays(created.EndDate, 1), nil)
	if err != nil {
		return domain.BlackoutDate{}, nil, fmt.Errorf("service.BlackoutService.Create: %w", err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditBlackoutCreate,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		NewData:        created,
	})
	return created, affected, nil
}

// List returns blackouts ending on or after from (all when from is nil).
func (s *BlackoutService) List(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return nil, fmt.Errorf("service.BlackoutService.List: %w", err)
	}
	items, err := s.store.Repos().Blackouts.List(ctx, orgID, from)
	if err != nil {
		return nil, fmt.Errorf("service.BlackoutService.List: %w", err)
	}
	if items == nil {
		return []domain.BlackoutDate{}, nil
	}
	return items, nil
}

// Delete removes a blackout.
func (s *BlackoutService) Delete(ctx context.Context, orgID, userID, id uuid.UUID) error {
	if err := requireAdminTenant(orgID); err != nil {
		return fmt.Errorf("service.BlackoutService.Delete: %w", err)
	}
	deleted, err := s.store.Repos().Blackouts.Delete(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("service.BlackoutService.Delete: %w", err)
	}
	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditBlackoutDelete,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		OldData:        deleted,
	})
	return nil
}

func validateBlackout(b domain.BlackoutDate) error {
	var errs []error
	if b.StartDate.IsZero() {
		errs = append(errs, domain.Invalid("start_date", "is required"))
	}
	if b.EndDate.IsZero() {
		errs = append(errs, domain.Invalid("end_date", "is required"))
	}
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		errs = append(errs, domain.Invalid("end_date", "must not be before start_date"))
	}
	return errors.Join(errs...)
}
