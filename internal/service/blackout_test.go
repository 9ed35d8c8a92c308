package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

func TestBlackoutService_Create_ReturnsOverlapWarnings(t *testing.T) {
	w := newWorld()
	orgID := uuid.New()
	a := w.addSite(orgID, "A1", 1)
	b := w.addSite(orgID, "B1", 2)
	onLastDay := w.addReservation(orgID, &a.ID, "2025-02-03", "2025-02-05", domain.StatusConfirmed)
	w.addReservation(orgID, &a.ID, "2025-01-28", "2025-02-01", domain.StatusConfirmed) // leaves as it starts
	w.addReservation(orgID, &a.ID, "2025-02-01", "2025-02-02", domain.StatusCancelled)
	w.addReservation(orgID, &b.ID, "2025-02-02", "2025-02-03", domain.StatusPending) // other site

	got, warnings, err := service.NewBlackoutService(w.store, w.audit).Create(context.Background(), orgID, uuid.New(), domain.BlackoutDate{
		CampsiteID: &a.ID,
		StartDate:  day("2025-02-01"),
		EndDate:    day("2025-02-03"),
		Reason:     "  septic work ",
	})

	require.NoError(t, err)
	assert.Equal(t, orgID, got.OrganizationID)
	assert.Equal(t, "septic work", got.Reason)
	require.Len(t, warnings, 1)
	assert.Equal(t, onLastDay.ID, warnings[0].ID)
	assert.Len(t, w.blackouts.items, 1, "created despite the overlap")
	assert.Equal(t, []string{domain.AuditBlackoutCreate}, w.audit.actions())
}

func TestBlackoutService_Create_GlobalWarnsAcrossSites(t *testing.T) {
	w := newWorld()
	orgID := uuid.New()
	a := w.addSite(orgID, "A1", 1)
	b := w.addSite(orgID, "B1", 2)
	w.addReservation(orgID, &a.ID, "2025-02-01", "2025-02-02", domain.StatusConfirmed)
	w.addReservation(orgID, &b.ID, "2025-02-02", "2025-02-04", domain.StatusCheckedIn)

	_, warnings, err := service.NewBlackoutService(w.store, w.audit).Create(context.Background(), orgID, uuid.New(), domain.BlackoutDate{
		StartDate: day("2025-02-02"),
		EndDate:   day("2025-02-02"),
	})

	require.NoError(t, err)
	assert.Len(t, warnings, 1, "A1 leaves on the first closed day")
}

func TestBlackoutService_Create_Validation(t *testing.T) {
	w := newWorld()
	orgID := uuid.New()
	svc := service.NewBlackoutService(w.store, w.audit)

	_, _, err := svc.Create(context.Background(), orgID, uuid.New(), domain.BlackoutDate{
		StartDate: day("2025-02-03"),
		EndDate:   day("2025-02-01"),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "end_date", domain.FieldErrors(err)[0].Field)

	_, _, err = svc.Create(context.Background(), orgID, uuid.New(), domain.BlackoutDate{
		CampsiteID: ptr(uuid.New()),
		StartDate:  day("2025-02-01"),
		EndDate:    day("2025-02-01"),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "campsite_id", domain.FieldErrors(err)[0].Field)
	assert.Empty(t, w.blackouts.items)
}

func TestBlackoutService_ListAndDelete(t *testing.T) {
	w := newWorld()
	orgA, orgB := uuid.New(), uuid.New()
	mine := w.addBlackout(orgA, nil, "2025-02-01", "2025-02-01")
	theirs := w.addBlackout(orgB, nil, "2025-02-01", "2025-02-01")
	svc := service.NewBlackoutService(w.store, w.audit)

	items, err := svc.List(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	assert.ErrorIs(t, svc.Delete(context.Background(), orgA, uuid.New(), theirs.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), orgA, uuid.New(), mine.ID))

	items, err = svc.List(context.Background(), orgA, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{domain.AuditBlackoutDelete}, w.audit.actions())
}
