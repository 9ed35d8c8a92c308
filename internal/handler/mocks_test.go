package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/handler"
	"github.com/afk-bro/watershed-campground-sub004/internal/middleware"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

// ---- mocks -----------------------------------------------------------------
// Set only the method fields your test needs.

type mockAvailability struct {
	search     func(ctx context.Context, orgID uuid.UUID, c domain.SearchCriteria) ([]domain.Campsite, error)
	check      func(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest) (domain.AvailabilityResult, error)
	checkAdmin func(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest, ov domain.Overrides) (domain.AvailabilityResult, error)
}

func (m *mockAvailability) Search(ctx context.Context, orgID uuid.UUID, c domain.SearchCriteria) ([]domain.Campsite, error) {
	return m.search(ctx, orgID, c)
}
func (m *mockAvailability) Check(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest) (domain.AvailabilityResult, error) {
	return m.check(ctx, orgID, req)
}
func (m *mockAvailability) CheckAdmin(ctx context.Context, orgID uuid.UUID, req domain.AvailabilityRequest, ov domain.Overrides) (domain.AvailabilityResult, error) {
	return m.checkAdmin(ctx, orgID, req, ov)
}

var _ handler.AvailabilityServicer = (*mockAvailability)(nil)

type mockReservations struct {
	createGuest  func(ctx context.Context, orgID uuid.UUID, b service.Booking) (service.GuestBooking, error)
	createAdmin  func(ctx context.Context, orgID, userID uuid.UUID, b service.Booking, status domain.ReservationStatus, ov domain.Overrides) (domain.Reservation, error)
	assign       func(ctx context.Context, orgID, userID, id uuid.UUID, a domain.Assignment, ov domain.Overrides) (domain.Reservation, error)
	updateStatus func(ctx context.Context, orgID, userID, id uuid.UUID, to domain.ReservationStatus) (domain.Reservation, error)
	archive      func(ctx context.Context, orgID, userID, id uuid.UUID) (domain.Reservation, error)
	get          func(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error)
	getWithToken func(ctx context.Context, orgID, id uuid.UUID, token string) (domain.Reservation, error)
	list         func(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error)
}

func (m *mockReservations) CreateGuest(ctx context.Context, orgID uuid.UUID, b service.Booking) (service.GuestBooking, error) {
	return m.createGuest(ctx, orgID, b)
}
func (m *mockReservations) CreateAdmin(ctx context.Context, orgID, userID uuid.UUID, b service.Booking, status domain.ReservationStatus, ov domain.Overrides) (domain.Reservation, error) {
	return m.createAdmin(ctx, orgID, userID, b, status, ov)
}
func (m *mockReservations) AssignOrReschedule(ctx context.Context, orgID, userID, id uuid.UUID, a domain.Assignment, ov domain.Overrides) (domain.Reservation, error) {
	return m.assign(ctx, orgID, userID, id, a, ov)
}
func (m *mockReservations) UpdateStatus(ctx context.Context, orgID, userID, id uuid.UUID, to domain.ReservationStatus) (domain.Reservation, error) {
	return m.updateStatus(ctx, orgID, userID, id, to)
}
func (m *mockReservations) Archive(ctx context.Context, orgID, userID, id uuid.UUID) (domain.Reservation, error) {
	return m.archive(ctx, orgID, userID, id)
}
func (m *mockReservations) Get(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	return m.get(ctx, orgID, id)
}
func (m *mockReservations) GetWithToken(ctx context.Context, orgID, id uuid.UUID, token string) (domain.Reservation, error) {
	return m.getWithToken(ctx, orgID, id, token)
}
func (m *mockReservations) List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return m.list(ctx, orgID, f, p)
}

var _ handler.ReservationServicer = (*mockReservations)(nil)

type mockCampsites struct {
	create  func(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error)
	getByID func(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error)
	list    func(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error)
	update  func(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error)
	delete  func(ctx context.Context, orgID, userID, id uuid.UUID) error
}

func (m *mockCampsites) Create(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error) {
	return m.create(ctx, orgID, userID, c)
}
func (m *mockCampsites) GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Campsite, error) {
	return m.getByID(ctx, orgID, id)
}
func (m *mockCampsites) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error) {
	return m.list(ctx, orgID, includeInactive)
}
func (m *mockCampsites) Update(ctx context.Context, orgID, userID uuid.UUID, c domain.Campsite) (domain.Campsite, error) {
	return m.update(ctx, orgID, userID, c)
}
func (m *mockCampsites) Delete(ctx context.Context, orgID, userID, id uuid.UUID) error {
	return m.delete(ctx, orgID, userID, id)
}

var _ handler.CampsiteServicer = (*mockCampsites)(nil)

type mockBlackouts struct {
	create func(ctx context.Context, orgID, userID uuid.UUID, b domain.BlackoutDate) (domain.BlackoutDate, []domain.Reservation, error)
	list   func(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error)
	delete func(ctx context.Context, orgID, userID, id uuid.UUID) error
}

func (m *mockBlackouts) Create(ctx context.Context, orgID, userID uuid.UUID, b domain.BlackoutDate) (domain.BlackoutDate, []domain.Reservation, error) {
	return m.create(ctx, orgID, userID, b)
}
func (m *mockBlackouts) List(ctx context.Context, orgID uuid.UUID, from *time.Time) ([]domain.BlackoutDate, error) {
	return m.list(ctx, orgID, from)
}
func (m *mockBlackouts) Delete(ctx context.Context, orgID, userID, id uuid.UUID) error {
	return m.delete(ctx, orgID, userID, id)
}

var _ handler.BlackoutServicer = (*mockBlackouts)(nil)

type mockPayments struct {
	handle func(ctx context.Context, ev domain.PaymentEvent) (domain.WebhookResult, error)
}

func (m *mockPayments) HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (domain.WebhookResult, error) {
	return m.handle(ctx, ev)
}

var _ handler.PaymentEventHandler = (*mockPayments)(nil)

type mockExport struct {
	export func(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]domain.ExportRow, error)
}

func (m *mockExport) Export(ctx context.Context, orgID uuid.UUID, from, to *time.Time) ([]domain.ExportRow, error) {
	return m.export(ctx, orgID, from, to)
}

var _ handler.ExportServicer = (*mockExport)(nil)

// ---- helpers ---------------------------------------------------------------

var (
	testOrg  = uuid.MustParse("6f1c2a8e-4b9d-4e7a-9c3b-1d2e3f4a5b6c")
	testUser = uuid.MustParse("0a9b8c7d-6e5f-4a3b-8c1d-9e8f7a6b5c4d")
)

const testWebhookSecret = "whsec_test_secret"

// newRouter mounts the handlers the way main.go does, with tenant and auth
// middleware replaced by fixed test identities.
func newRouter(d handler.Deps) http.Handler {
	withOrg := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithOrganization(r.Context(), testOrg)))
		})
	}
	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), testUser)))
		})
	}
	return newRouterWith(d, handler.Middlewares{
		PublicTenant: withOrg,
		AdminAuth:    withUser,
		AdminTenant:  withOrg,
	})
}

// newRouterWith mounts the routes behind mw.
func newRouterWith(d handler.Deps, mw handler.Middlewares) http.Handler {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.WebhookSecret = testWebhookSecret

	r := chi.NewRouter()
	handler.NewServer(d).Routes(r, mw)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func reservationFixture() domain.Reservation {
	site := uuid.New()
	return domain.Reservation{
		ID:             uuid.New(),
		OrganizationID: testOrg,
		GuestFirstName: "Ada",
		GuestLastName:  "Camper",
		GuestEmail:     "ada@example.com",
		CheckIn:        day("2025-07-01"),
		CheckOut:       day("2025-07-04"),
		Adults:         2,
		UnitType:       domain.SiteRVTrailer,
		CampsiteID:     &site,
		Status:         domain.StatusConfirmed,
		PaymentStatus:  domain.PaymentUnpaid,
	}
}
