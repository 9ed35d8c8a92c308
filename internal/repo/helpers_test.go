package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
	"github.com/afk-bro/watershed-campground-sub004/testutil"
)

// newTestTx opens a transaction against the test database and returns
// repositories bound to it. The transaction is rolled back when the test
// finishes, so no cleanup SQL is needed.
func newTestTx(t *testing.T) (pgx.Tx, repo.Repos) {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx, repo.NewRepos(tx)
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func campsiteFixture(orgID uuid.UUID, code string) domain.Campsite {
	return domain.Campsite{
		OrganizationID: orgID,
		Code:           code,
		Name:           "Site " + code,
		Type:           domain.SiteRVTrailer,
		MaxGuests:      6,
		BaseRate:       decimal.RequireFromString("45.00"),
		IsActive:       true,
	}
}

func reservationFixture(orgID uuid.UUID, campsiteID *uuid.UUID, in, out string) domain.Reservation {
	return domain.Reservation{
		OrganizationID: orgID,
		GuestFirstName: "Ada",
		GuestLastName:  "Camper",
		GuestEmail:     "ada@example.com",
		CheckIn:        date(in),
		CheckOut:       date(out),
		Adults:         2,
		UnitType:       domain.SiteRVTrailer,
		CampsiteID:     campsiteID,
		Status:         domain.StatusConfirmed,
		TotalAmount:    decimal.RequireFromString("180.00"),
		PaymentStatus:  domain.PaymentUnpaid,
		BalanceDue:     decimal.RequireFromString("180.00"),
	}
}

func mustCampsite(t *testing.T, r repo.Repos, orgID uuid.UUID, code string) domain.Campsite {
	t.Helper()
	c, err := r.Campsites.Create(context.Background(), campsiteFixture(orgID, code))
	require.NoError(t, err)
	return c
}
