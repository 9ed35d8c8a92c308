package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// exportPageSize is the page size used while walking the reservation list.
const exportPageSize = domain.MaxPageLimit

// ExportService assembles a flat export of reservations.
type ExportService struct {
	reservations repo.ReservationRepo
	campsites    repo.CampsiteRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(reservations repo.ReservationRepo, campsites repo.CampsiteRepo) *ExportService {
	return &ExportService{reservations: reservations, campsites: campsites}
}

// Export returns one ExportRow per reservation whose stay touches [from, to).
// Nil bounds are open. Archived reservations are included.
func (s *ExportService) Export(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]domain.ExportRow, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, domain.Invalid("to", "must be after from")
	}

	sites, err := s.campsites.List(ctx, orgID, true)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	codes := make(map[uuid.UUID]string, len(sites))
	for _, c := range sites {
		codes[c.ID] = c.Code
	}

	filter := domain.ReservationFilter{From: from, To: to, IncludeArchived: true}
	limit := exportPageSize
	rows := []domain.ExportRow{}
	for page := 1; ; page++ {
		p := page
		items, total, err := s.reservations.List(ctx, orgID, filter, domain.NewPaginationParams(&p, &limit))
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: %w", err)
		}
		for _, r := range items {
			rows = append(rows, toExportRow(r, codes))
		}
		if len(items) == 0 || int64(len(rows)) >= total {
			break
		}
	}
	return rows, nil
}

func toExportRow(r domain.Reservation, codes map[uuid.UUID]string) domain.ExportRow {
	row := domain.ExportRow{
		ReservationID: r.ID.String(),
		GuestName:     strings.TrimSpace(r.GuestFirstName + " " + r.GuestLastName),
		GuestEmail:    r.GuestEmail,
		CheckIn:       domain.FormatDate(r.CheckIn),
		CheckOut:      domain.FormatDate(r.CheckOut),
		Nights:        r.Nights(),
		Guests:        r.Guests(),
		UnitType:      string(r.UnitType),
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		TotalAmount:   r.TotalAmount.StringFixed(2),
		BalanceDue:    r.BalanceDue.StringFixed(2),
	}
	if r.CampsiteID != nil {
		row.CampsiteCode = codes[*r.CampsiteID]
	}
	return row
}
