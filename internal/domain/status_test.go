package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

func TestIsBlockingStatus(t *testing.T) {
	blocking := []domain.ReservationStatus{domain.StatusPending, domain.StatusConfirmed, domain.StatusCheckedIn}
	for _, s := range blocking {
		assert.True(t, domain.IsBlockingStatus(s), s)
		assert.False(t, s.IsTerminal(), s)
	}
	terminal := []domain.ReservationStatus{domain.StatusCancelled, domain.StatusNoShow, domain.StatusCheckedOut}
	for _, s := range terminal {
		assert.False(t, domain.IsBlockingStatus(s), s)
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, domain.IsBlockingStatus("archived"))
}

func TestBlockingStatusValues_MatchesPredicate(t *testing.T) {
	vals := domain.BlockingStatusValues()

	assert.ElementsMatch(t, []string{"pending", "confirmed", "checked_in"}, vals)
	for _, v := range vals {
		assert.True(t, domain.IsBlockingStatus(domain.ReservationStatus(v)))
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, domain.CanTransition(domain.StatusPending, domain.StatusConfirmed))
	assert.True(t, domain.CanTransition(domain.StatusConfirmed, domain.StatusCheckedIn))
	assert.True(t, domain.CanTransition(domain.StatusCheckedIn, domain.StatusCheckedOut))
	assert.True(t, domain.CanTransition(domain.StatusConfirmed, domain.StatusNoShow))

	assert.False(t, domain.CanTransition(domain.StatusCancelled, domain.StatusPending), "cancelled is final")
	assert.False(t, domain.CanTransition(domain.StatusCheckedOut, domain.StatusCheckedIn))
	assert.False(t, domain.CanTransition(domain.StatusPending, domain.StatusCheckedOut))
}

// TestCanTransition_NeverReentersBlocking guards the assumption that operator
// status changes need no conflict re-check.
func TestCanTransition_NeverReentersBlocking(t *testing.T) {
	all := []domain.ReservationStatus{
		domain.StatusPending, domain.StatusConfirmed, domain.StatusCheckedIn,
		domain.StatusCheckedOut, domain.StatusCancelled, domain.StatusNoShow,
	}
	for _, from := range all {
		for _, to := range all {
			if domain.CanTransition(from, to) && domain.IsBlockingStatus(to) {
				assert.True(t, domain.IsBlockingStatus(from), "%s -> %s", from, to)
			}
		}
	}
}

func TestSiteType_Accepts(t *testing.T) {
	assert.True(t, domain.SiteRVTrailer.Accepts(domain.SiteCamperVan))
	assert.True(t, domain.SiteTent.Accepts(domain.SiteTent))
	assert.False(t, domain.SiteTent.Accepts(domain.SiteRVTrailer))
	assert.ElementsMatch(t,
		[]domain.SiteType{domain.SiteRVTrailer, domain.SiteCamperVan},
		domain.CompatibleSiteTypes(domain.SiteCamperVan))
}
