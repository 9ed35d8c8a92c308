// Package handler implements the HTTP handlers for the booking API.
// All handlers are methods on Server; routes are mounted by Server.Routes.
// Methods are split into resource files (availability.go, reservation.go,
// etc.) but share the same Server struct and its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

// AvailabilityServicer answers search and single-campsite questions.
type AvailabilityServicer interface {
	Search(ctx context.Context, orgID uuid.UUID, c domain.SearchCriteria) ([]domain.Campsite, error)
	Check(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest) (domain.AvailabilityResult, error)
	CheckAdmin(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest, ov domain.Overrides) (domain.AvailabilityResult, error)
}

// ReservationServicer is every reservation operation the API exposes.
type ReservationServicer interface {
	CreateGuest(ctx context.Context, orgID uuid.UUID, b service.Booking) (service.GuestBooking, error)
	CreateAdmin(ctx context.Context, orgID, userID uuid.UUID, b service.Booking, status domain.ReservationStatus, ov domain.Overrides) (domain.Reservation, error)
	AssignOrReschedule(ctx context.Context, orgID, userID, id uuid.UUID, a domain.Assignment, ov domain.Overrides) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, orgID, userID, id uuid.UUID, to domain.ReservationStatus) (domain.Reservation, error)
	Archive(ctx context.Context, orgID, userID, id uuid.UUID) (domain.Reservation, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error)
	GetWithToken(ctx context.Context, orgID, id uuid.UUID, token string) (domain.Reservation, error)
	List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error)
}

// CampsiteServicer manages campsites.
type CampsiteServicer interface {
	Create(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error)
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error)
	Update(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error)
	Delete(ctx context.Context, orgID, userID, id uuid.UUID) error
}

// BlackoutServicer manages blackout dates.
type BlackoutServicer interface {
	Create(ctx context.Context, orgID, userID uuid.UUID, b domain.BlackoutDate) (domain.BlackoutDate, []domain.Reservation, error)
	List(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error)
	Delete(ctx context.Context, orgID, userID, id uuid.UUID) error
}

// PaymentEventHandler applies a verified payment event.
type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (domain.WebhookResult, error)
}

// ExportServicer produces the flat reservation export.
type ExportServicer interface {
	Export(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]domain.ExportRow, error)
}

// Deps are the services behind the handlers. Nil entries are allowed in
// tests that only exercise some routes.
type Deps struct {
	Availability  AvailabilityServicer
	Reservations  ReservationServicer
	Campsites     CampsiteServicer
	Blackouts     BlackoutServicer
	Payments      PaymentEventHandler
	Export        ExportServicer
	WebhookSecret string
	Log           *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	Deps
	validate *validator.Validate
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Server{Deps: d, validate: newValidator()}
}

// Middlewares wraps route groups. PublicTenant, AdminAuth and AdminTenant
// are required; Routes panics without them. Nil limits pass requests through.
type Middlewares struct {
	PublicTenant func(http.Handler) http.Handler // organization from Host
	AdminAuth    func(http.Handler) http.Handler // bearer token to user id
	AdminTenant  func(http.Handler) http.Handler // user id to organization
	SearchLimit  func(http.Handler) http.Handler // public reads
	BookingLimit func(http.Handler) http.Handler // public writes
}

func passthrough(next http.Handler) http.Handler { return next }

func orPass(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// Routes mounts every API route on r.
func (s *Server) Routes(r chi.Router, mw Middlewares) {
	switch {
	case mw.PublicTenant == nil:
		panic("handler: Routes needs a PublicTenant middleware")
	case mw.AdminAuth == nil:
		panic("handler: Routes needs an AdminAuth middleware")
	case mw.AdminTenant == nil:
		panic("handler: Routes needs an AdminTenant middleware")
	}

	r.Get("/healthz", s.GetHealth)
	r.Post("/api/webhooks/stripe", s.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(mw.PublicTenant)

		r.With(orPass(mw.SearchLimit)).Get("/api/availability/search", s.SearchAvailability)
		r.With(orPass(mw.SearchLimit)).Get("/api/availability/campsites/{campsiteId}", s.CheckAvailability)
		r.With(orPass(mw.SearchLimit)).Get("/api/reservations/{reservationId}", s.GetGuestReservation)
		r.With(orPass(mw.BookingLimit)).Post("/api/reservations", s.CreateGuestReservation)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.AdminAuth, mw.AdminTenant)

		r.Get("/availability/campsites/{campsiteId}", s.CheckAvailabilityAdmin)

		r.Get("/campsites", s.ListCampsites)
		r.Post("/campsites", s.CreateCampsite)
		r.Get("/campsites/{campsiteId}", s.GetCampsite)
		r.Put("/campsites/{campsiteId}", s.UpdateCampsite)
		r.Delete("/campsites/{campsiteId}", s.DeleteCampsite)

		r.Get("/blackouts", s.ListBlackouts)
		r.Post("/blackouts", s.CreateBlackout)
		r.Delete("/blackouts/{blackoutId}", s.DeleteBlackout)

		r.Get("/reservations", s.ListReservations)
		r.Post("/reservations", s.CreateAdminReservation)
		r.Get("/reservations/export", s.GetExport)
		r.Get("/reservations/{reservationId}", s.GetReservation)
		r.Patch("/reservations/{reservationId}/assignment", s.AssignReservation)
		r.Post("/reservations/{reservationId}/status", s.UpdateReservationStatus)
		r.Post("/reservations/{reservationId}/archive", s.ArchiveReservation)
	})
}
