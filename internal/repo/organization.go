package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// OrganizationRepo looks up tenants. It is the only repo whose reads are not
// themselves scoped by organization id, because it is how that id is found.
type OrganizationRepo interface {
	// ResolveHost returns the organization mapped to host.
	// Returns domain.ErrNotFound when no mapping exists.
	ResolveHost(ctx context.Context, host string) (uuid.UUID, error)

	// GetUserOrganization returns the organization the user belongs to, or
	// nil when the user has no membership.
	GetUserOrganization(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)

	// GetByID retrieves an organization by primary key.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
}

type pgOrganizationRepo struct {
	db db
}

// NewOrganizationRepo constructs an OrganizationRepo backed by db.
func NewOrganizationRepo(db db) OrganizationRepo {
	return &pgOrganizationRepo{db: db}
}

func (r *pgOrganizationRepo) ResolveHost(ctx context.Context, host string) (uuid.UUID, error) {
	const q = `SELECT organization_id FROM organization_domains WHERE host = @host`

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"host": host}).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("repo.OrganizationRepo.ResolveHost: %w", noRows(err))
	}
	return uuid.UUID(id.Bytes), nil
}

func (r *pgOrganizationRepo) GetUserOrganization(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	const q = `SELECT organization_id FROM organization_members WHERE user_id = @user_id`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repo.OrganizationRepo.GetUserOrganization: %w", err)
	}
	return uuidPtr(id), nil
}

func (r *pgOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	const q = `SELECT id, name, slug, created_at FROM organizations WHERE id = @id`

	var (
		o   domain.Organization
		oid pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&oid, &o.Name, &o.Slug, &o.CreatedAt)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("repo.OrganizationRepo.GetByID: %w", noRows(err))
	}
	o.ID = uuid.UUID(oid.Bytes)
	return o, nil
}
