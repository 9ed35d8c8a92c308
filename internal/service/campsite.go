package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/audit"
	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// CampsiteService implements operator management of campsites.
type CampsiteService struct {
	campsites repo.CampsiteRepo
	audit     audit.Logger
}

// NewCampsiteService constructs a CampsiteService.
func NewCampsiteService(campsites repo.CampsiteRepo, auditLog audit.Logger) *CampsiteService {
	return &CampsiteService{campsites: campsites, audit: auditLog}
}

// Create validates and persists a new campsite in orgID.
// Returns domain.ErrConflict when the code is already used in orgID.
func (s *CampsiteService) Create(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Create: %w", err)
	}
	c.OrganizationID = orgID
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	if err := validateCampsite(c); err != nil {
		return domain.Campsite{}, err
	}
	created, err := s.campsites.Create(ctx, c)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Create: %w", err)
	}
	s.logChange(ctx, orgID, userID, nil, created)
	return created, nil
}

// GetByID returns one campsite in orgID.
func (s *CampsiteService) GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.GetByID: %w", err)
	}
	c, err := s.campsites.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.GetByID: %w", err)
	}
	return c, nil
}

// List returns the campsites of orgID in sort order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CampsiteService) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return nil, fmt.Errorf("service.CampsiteService.List: %w", err)
	}
	items, err := s.campsites.List(ctx, orgID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("service.CampsiteService.List: %w", err)
	}
	if items == nil {
		return []domain.Campsite{}, nil
	}
	return items, nil
}

// Update replaces the editable fields of a campsite. Deactivating a site
// hides it from search but leaves its reservations as they are.
func (s *CampsiteService) Update(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Update: %w", err)
	}
	c.OrganizationID = orgID
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	if err := validateCampsite(c); err != nil {
		return domain.Campsite{}, err
	}
	before, err := s.campsites.GetByID(ctx, orgID, c.ID)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Update: %w", err)
	}
	updated, err := s.campsites.Update(ctx, c)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.CampsiteService.Update: %w", err)
	}
	s.logChange(ctx, orgID, userID, before, updated)
	return updated, nil
}

// Delete removes a campsite with no reservations.
// Returns domain.ErrConflict while any reservation references it; the
// operator should deactivate the site instead.
func (s *CampsiteService) Delete(ctx context.Context, orgID, userID, id uuid.UUID) error {
	if err := requireAdminTenant(orgID); err != nil {
		return fmt.Errorf("service.CampsiteService.Delete: %w", err)
	}
	before, err := s.campsites.GetByID(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("service.CampsiteService.Delete: %w", err)
	}
	if err := s.campsites.Delete(ctx, orgID, id); err != nil {
		return fmt.Errorf("service.CampsiteService.Delete: %w", err)
	}
	s.logChange(ctx, orgID, userID, before, nil)
	return nil
}

func (s *CampsiteService) logChange(ctx context.Context, orgID, userID uuid.UUID, before, after any) {
	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditCampsiteChange,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		OldData:        before,
		NewData:        after,
	})
}

func validateCampsite(c domain.Campsite) error {
	var errs []error
	if c.Code == "" {
		errs = append(errs, domain.Invalid("code", "is required"))
	}
	if c.Name == "" {
		errs = append(errs, domain.Invalid("name", "is required"))
	}
	if !c.Type.Valid() {
		errs = append(errs, domain.Invalid("type", "unknown site type"))
	}
	if c.MaxGuests < 1 {
		errs = append(errs, domain.Invalid("max_guests", "must be at least 1"))
	}
	if c.MaxRVLength != nil && *c.MaxRVLength < 1 {
		errs = append(errs, domain.Invalid("max_rv_length", "must be a positive number of feet"))
	}
	if c.BaseRate.IsNegative() {
		errs = append(errs, domain.Invalid("base_rate", "must not be negative"))
	}
	return errors.Join(errs...)
}
