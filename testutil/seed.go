package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SeedOrganization inserts an organization with a unique slug and maps
// "<slug>.test" to it in organization_domains. It returns the new id.
func SeedOrganization(t *testing.T, q Querier, name string) (uuid.UUID, string) {
	t.Helper()

	slug := name + "-" + uuid.NewString()[:8]
	var id uuid.UUID
	err := q.QueryRow(context.Background(), `
		WITH org AS (
			INSERT INTO organizations (name, slug) VALUES ($1, $2) RETURNING id
		), host AS (
			INSERT INTO organization_domains (host, organization_id)
			SELECT $2 || '.test', id FROM org
		)
		SELECT id FROM org`, name, slug).Scan(&id)
	if err != nil {
		t.Fatalf("testutil.SeedOrganization: %v", err)
	}
	return id, slug + ".test"
}

// SeedMember adds a fresh user to orgID and returns the user id.
func SeedMember(t *testing.T, q Querier, orgID uuid.UUID) uuid.UUID {
	t.Helper()

	var userID uuid.UUID
	err := q.QueryRow(context.Background(), `
		INSERT INTO organization_members (user_id, organization_id)
		VALUES (gen_random_uuid(), $1)
		RETURNING user_id`, orgID).Scan(&userID)
	if err != nil {
		t.Fatalf("testutil.SeedMember: %v", err)
	}
	return userID
}
