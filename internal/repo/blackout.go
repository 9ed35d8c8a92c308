package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// BlackoutRepo defines the persistence operations for BlackoutDates.
type BlackoutRepo interface {
	// Create inserts a blackout window and returns the persisted record.
	Create(ctx context.Context, b domain.BlackoutDate) (domain.BlackoutDate, error)

	// List returns the organization's blackouts that end on or after from
	// (all of them when from is nil), ordered by start date.
	List(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error)

	// FindOverlapping returns blackouts that close any night of
	// [checkIn, checkOut) for one of campsiteIDs, including global ones.
	// A nil campsiteIDs matches site-specific blackouts for every campsite.
	FindOverlapping(ctx context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time) ([]domain.BlackoutDate, error)

	// Delete removes a blackout. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, orgID, id uuid.UUID) (domain.BlackoutDate, error)
}

type pgBlackoutRepo struct {
	db db
}

// NewBlackoutRepo constructs a BlackoutRepo backed by the provided db connection.
func NewBlackoutRepo(db db) BlackoutRepo {
	return &pgBlackoutRepo{db: db}
}

const blackoutColumns = `id, organization_id, campsite_id, start_date, end_date, reason, created_at`

func (r *pgBlackoutRepo) Create(ctx context.Context, b domain.BlackoutDate) (domain.BlackoutDate, error) {
	q := `
		INSERT INTO blackout_dates (organization_id, campsite_id, start_date, end_date, reason)
		VALUES (@organization_id, @campsite_id, @start_date, @end_date, @reason)
		RETURNING ` + blackoutColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"organization_id": b.OrganizationID,
		"campsite_id":     b.CampsiteID,
		"start_date":      b.StartDate,
		"end_date":        b.EndDate,
		"reason":          b.Reason,
	})
	result, err := scanBlackout(row)
	if err != nil {
		return domain.BlackoutDate{}, fmt.Errorf("repo.BlackoutRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgBlackoutRepo) List(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error) {
	q := `SELECT ` + blackoutColumns + `
		FROM blackout_dates
		WHERE organization_id = @organization_id
		  AND (@from::date IS NULL OR end_date >= @from::date)
		ORDER BY start_date, created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"organization_id": orgID, "from": from})
	if err != nil {
		return nil, fmt.Errorf("repo.BlackoutRepo.List: %w", err)
	}
	return collectBlackouts(rows, "repo.BlackoutRepo.List")
}

// FindOverlapping uses end_date >= check_in because the blackout end is
// inclusive while the stay's check-out is not.
func (r *pgBlackoutRepo) FindOverlapping(ctx context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time) ([]domain.BlackoutDate, error) {
	q := `SELECT ` + blackoutColumns + `
		FROM blackout_dates
		WHERE organization_id = @organization_id
		  AND start_date < @check_out
		  AND end_date >= @check_in
		  AND (campsite_id IS NULL OR @all_sites OR campsite_id = ANY(@campsite_ids))
		ORDER BY start_date, created_at`

	ids := campsiteIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"organization_id": orgID,
		"check_in":        checkIn,
		"check_out":       checkOut,
		"all_sites":       campsiteIDs == nil,
		"campsite_ids":    ids,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.BlackoutRepo.FindOverlapping: %w", err)
	}
	return collectBlackouts(rows, "repo.BlackoutRepo.FindOverlapping")
}

func (r *pgBlackoutRepo) Delete(ctx context.Context, orgID, id uuid.UUID) (domain.BlackoutDate, error) {
	q := `
		DELETE FROM blackout_dates
		WHERE id = @id AND organization_id = @organization_id
		RETURNING ` + blackoutColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID})
	result, err := scanBlackout(row)
	if err != nil {
		return domain.BlackoutDate{}, fmt.Errorf("repo.BlackoutRepo.Delete: %w", err)
	}
	return result, nil
}

func collectBlackouts(rows pgx.Rows, op string) ([]domain.BlackoutDate, error) {
	defer rows.Close()

	out := []domain.BlackoutDate{}
	for rows.Next() {
		b, err := scanBlackout(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// scanBlackout maps a single database row into a domain.BlackoutDate.
func scanBlackout(s scanner) (domain.BlackoutDate, error) {
	var (
		b                 domain.BlackoutDate
		id, org, campsite pgtype.UUID
		start, end        pgtype.Date
	)
	err := s.Scan(&id, &org, &campsite, &start, &end, &b.Reason, &b.CreatedAt)
	if err != nil {
		return domain.BlackoutDate{}, noRows(err)
	}
	b.ID = uuid.UUID(id.Bytes)
	b.OrganizationID = uuid.UUID(org.Bytes)
	b.CampsiteID = uuidPtr(campsite)
	b.StartDate = start.Time
	b.EndDate = end.Time
	return b, nil
}
