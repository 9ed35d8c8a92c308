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

// PolicyRepo reads payment policies.
type PolicyRepo interface {
	// Create inserts a payment policy.
	Create(ctx context.Context, p domain.PaymentPolicy) (domain.PaymentPolicy, error)

	// List returns the organization's policies in creation order, which is
	// the tie-break order domain.SelectPolicy relies on.
	List(ctx context.Context, orgID uuid.UUID) ([]domain.PaymentPolicy, error)
}

type pgPolicyRepo struct {
	db db
}

// NewPolicyRepo constructs a PolicyRepo backed by the provided db connection.
func NewPolicyRepo(db db) PolicyRepo {
	return &pgPolicyRepo{db: db}
}

const policyColumns = `id, organization_id, name, campsite_id, site_type, season_start_month, season_start_day,
		season_end_month, season_end_day, policy_type, deposit_value, remainder_due_days, created_at`

func (r *pgPolicyRepo) Create(ctx context.Context, p domain.PaymentPolicy) (domain.PaymentPolicy, error) {
	q := `
		INSERT INTO payment_policies (organization_id, name, campsite_id, site_type, season_start_month,
		                              season_start_day, season_end_month, season_end_day, policy_type,
		                              deposit_value, remainder_due_days)
		VALUES (@organization_id, @name, @campsite_id, @site_type, @ssm, @ssd, @sem, @sed, @policy_type,
		        @deposit_value, @remainder_due_days)
		RETURNING ` + policyColumns

	args := pgx.NamedArgs{
		"organization_id":    p.OrganizationID,
		"name":               p.Name,
		"campsite_id":        p.CampsiteID,
		"site_type":          nil,
		"ssm":                nil,
		"ssd":                nil,
		"sem":                nil,
		"sed":                nil,
		"policy_type":        string(p.Type),
		"deposit_value":      p.DepositValue,
		"remainder_due_days": p.RemainderDueDays,
	}
	if p.SiteType != nil {
		args["site_type"] = string(*p.SiteType)
	}
	if s := p.Season; s != nil {
		args["ssm"], args["ssd"] = int(s.StartMonth), s.StartDay
		args["sem"], args["sed"] = int(s.EndMonth), s.EndDay
	}

	result, err := scanPolicy(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.PaymentPolicy{}, fmt.Errorf("repo.PolicyRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgPolicyRepo) List(ctx context.Context, orgID uuid.UUID) ([]domain.PaymentPolicy, error) {
	q := `SELECT ` + policyColumns + `
		FROM payment_policies
		WHERE organization_id = @organization_id
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"organization_id": orgID})
	if err != nil {
		return nil, fmt.Errorf("repo.PolicyRepo.List: %w", err)
	}
	defer rows.Close()

	out := []domain.PaymentPolicy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PolicyRepo.List: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PolicyRepo.List: rows: %w", err)
	}
	return out, nil
}

// scanPolicy maps a single database row into a domain.PaymentPolicy.
// A season is only populated when all four month/day columns are set.
func scanPolicy(s scanner) (domain.PaymentPolicy, error) {
	var (
		p                  domain.PaymentPolicy
		id, org, campsite  pgtype.UUID
		siteType           *string
		ssm, ssd, sem, sed pgtype.Int2
		policyType         string
	)
	err := s.Scan(&id, &org, &p.Name, &campsite, &siteType, &ssm, &ssd, &sem, &sed,
		&policyType, &p.DepositValue, &p.RemainderDueDays, &p.CreatedAt)
	if err != nil {
		return domain.PaymentPolicy{}, noRows(err)
	}
	p.ID = uuid.UUID(id.Bytes)
	p.OrganizationID = uuid.UUID(org.Bytes)
	p.CampsiteID = uuidPtr(campsite)
	p.Type = domain.PolicyType(policyType)
	if siteType != nil {
		st := domain.SiteType(*siteType)
		p.SiteType = &st
	}
	if ssm.Valid && ssd.Valid && sem.Valid && sed.Valid {
		p.Season = &domain.Season{
			StartMonth: time.Month(ssm.Int16),
			StartDay:   int(ssd.Int16),
			EndMonth:   time.Month(sem.Int16),
			EndDay:     int(sed.Int16),
		}
	}
	return p, nil
}
