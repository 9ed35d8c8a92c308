package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// CampsiteRepo defines the persistence operations for Campsites.
// Every method is scoped by organization id.
type CampsiteRepo interface {
	// Create inserts a campsite and returns the persisted record.
	Create(ctx context.Context, c domain.Campsite) (domain.Campsite, error)

	// GetByID retrieves a campsite in orgID.
	// Returns domain.ErrNotFound if it does not exist in that organization.
	GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error)

	// List returns the organization's campsites ordered by sort_order, code.
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error)

	// ListSearchCandidates returns active campsites with room for guests whose
	// type is in types (any type when types is empty), ordered by sort_order.
	ListSearchCandidates(ctx context.Context, orgID uuid.UUID, guests int, types []domain.SiteType) ([]domain.Campsite, error)

	// Update overwrites the mutable fields of a campsite.
	// Returns domain.ErrNotFound if it does not exist in that organization.
	Update(ctx context.Context, c domain.Campsite) (domain.Campsite, error)

	// Delete removes a campsite. Returns domain.ErrConflict while reservations
	// still reference it and domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type pgCampsiteRepo struct {
	db db
}

// NewCampsiteRepo constructs a CampsiteRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCampsiteRepo(db db) CampsiteRepo {
	return &pgCampsiteRepo{db: db}
}

const campsiteColumns = `id, organization_id, code, name, site_type, max_guests, max_rv_length,
		base_rate, is_active, sort_order, created_at, updated_at`

func (r *pgCampsiteRepo) Create(ctx context.Context, c domain.Campsite) (domain.Campsite, error) {
	q := `
		INSERT INTO campsites (organization_id, code, name, site_type, max_guests, max_rv_length,
		                       base_rate, is_active, sort_order)
		VALUES (@organization_id, @code, @name, @site_type, @max_guests, @max_rv_length,
		        @base_rate, @is_active, @sort_order)
		RETURNING ` + campsiteColumns

	row := r.db.QueryRow(ctx, q, campsiteArgs(c))
	result, err := scanCampsite(row)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgCampsiteRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + `
		FROM campsites
		WHERE id = @id AND organization_id = @organization_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID})
	result, err := scanCampsite(row)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCampsiteRepo) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + `
		FROM campsites
		WHERE organization_id = @organization_id
		  AND (@include_inactive OR is_active)
		ORDER BY sort_order, code`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"organization_id": orgID, "include_inactive": includeInactive})
	if err != nil {
		return nil, fmt.Errorf("repo.CampsiteRepo.List: %w", err)
	}
	return collectCampsites(rows, "repo.CampsiteRepo.List")
}

func (r *pgCampsiteRepo) ListSearchCandidates(ctx context.Context, orgID uuid.UUID, guests int, types []domain.SiteType) ([]domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + `
		FROM campsites
		WHERE organization_id = @organization_id
		  AND is_active
		  AND max_guests >= @guests
		  AND (cardinality(@types::text[]) = 0 OR site_type = ANY(@types::text[]))
		ORDER BY sort_order, code`

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"organization_id": orgID,
		"guests":          guests,
		"types":           names,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.CampsiteRepo.ListSearchCandidates: %w", err)
	}
	return collectCampsites(rows, "repo.CampsiteRepo.ListSearchCandidates")
}

func (r *pgCampsiteRepo) Update(ctx context.Context, c domain.Campsite) (domain.Campsite, error) {
	q := `
		UPDATE campsites
		SET code          = @code,
		    name          = @name,
		    site_type     = @site_type,
		    max_guests    = @max_guests,
		    max_rv_length = @max_rv_length,
		    base_rate     = @base_rate,
		    is_active     = @is_active,
		    sort_order    = @sort_order,
		    updated_at    = now()
		WHERE id = @id AND organization_id = @organization_id
		RETURNING ` + campsiteColumns

	args := campsiteArgs(c)
	args["id"] = c.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanCampsite(row)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgCampsiteRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	const q = `DELETE FROM campsites WHERE id = @id AND organization_id = @organization_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID})
	if err != nil {
		return fmt.Errorf("repo.CampsiteRepo.Delete: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CampsiteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func campsiteArgs(c domain.Campsite) pgx.NamedArgs {
	return pgx.NamedArgs{
		"organization_id": c.OrganizationID,
		"code":            c.Code,
		"name":            c.Name,
		"site_type":       string(c.Type),
		"max_guests":      c.MaxGuests,
		"max_rv_length":   c.MaxRVLength, // nil becomes NULL
		"base_rate":       c.BaseRate,
		"is_active":       c.IsActive,
		"sort_order":      c.SortOrder,
	}
}

func collectCampsites(rows pgx.Rows, op string) ([]domain.Campsite, error) {
	defer rows.Close()

	sites := []domain.Campsite{}
	for rows.Next() {
		c, err := scanCampsite(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		sites = append(sites, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return sites, nil
}

// scanCampsite maps a single database row into a domain.Campsite.
func scanCampsite(s scanner) (domain.Campsite, error) {
	var (
		c        domain.Campsite
		id, org  pgtype.UUID
		siteType string
	)
	err := s.Scan(&id, &org, &c.Code, &c.Name, &siteType, &c.MaxGuests, &c.MaxRVLength,
		&c.BaseRate, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Campsite{}, noRows(err)
	}
	c.ID = uuid.UUID(id.Bytes)
	c.OrganizationID = uuid.UUID(org.Bytes)
	c.Type = domain.SiteType(siteType)
	return c, nil
}
