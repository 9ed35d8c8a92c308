package service_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
)

// ---- store -----------------------------------------------------------------

// fakeStore hands the same mock repos to direct calls and to InTx.
// InTx records the isolation level it was asked for.
type fakeStore struct {
	repos repo.Repos
	isos  []pgx.TxIsoLevel
	// commitErr, when set, is returned by InTx after fn succeeds.
	commitErr error
}

func (s *fakeStore) Repos() repo.Repos { return s.repos }

func (s *fakeStore) InTx(_ context.Context, iso pgx.TxIsoLevel, fn func(repo.Repos) error) error {
	s.isos = append(s.isos, iso)
	if err := fn(s.repos); err != nil {
		return err
	}
	return s.commitErr
}

var _ repo.Store = (*fakeStore)(nil)

// ---- mock repos ------------------------------------------------------------
// Unset func fields return zero values so each test only wires what it uses.

type mockOrganizationRepo struct {
	resolveHost         func(ctx context.Context, host string) (uuid.UUID, error)
	getUserOrganization func(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

func (m *mockOrganizationRepo) ResolveHost(ctx context.Context, host string) (uuid.UUID, error) {
	return m.resolveHost(ctx, host)
}
func (m *mockOrganizationRepo) GetUserOrganization(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	return m.getUserOrganization(ctx, userID)
}
func (m *mockOrganizationRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Organization, error) {
	return domain.Organization{ID: id}, nil
}

var _ repo.OrganizationRepo = (*mockOrganizationRepo)(nil)

// mockCampsiteRepo serves campsites from an in-memory map.
type mockCampsiteRepo struct {
	sites      []domain.Campsite
	create     func(ctx context.Context, c domain.Campsite) (domain.Campsite, error)
	update     func(ctx context.Context, c domain.Campsite) (domain.Campsite, error)
	delete     func(ctx context.Context, orgID, id uuid.UUID) error
	candidates func(ctx context.Context, orgID uuid.UUID, guests int, types []domain.SiteType) ([]domain.Campsite, error)
}

func (m *mockCampsiteRepo) Create(ctx context.Context, c domain.Campsite) (domain.Campsite, error) {
	return m.create(ctx, c)
}
func (m *mockCampsiteRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (domain.Campsite, error) {
	for _, c := range m.sites {
		if c.ID == id && c.OrganizationID == orgID {
			return c, nil
		}
	}
	return domain.Campsite{}, domain.ErrNotFound
}
func (m *mockCampsiteRepo) List(_ context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Campsite, error) {
	var out []domain.Campsite
	for _, c := range m.sites {
		if c.OrganizationID == orgID && (includeInactive || c.IsActive) {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *mockCampsiteRepo) ListSearchCandidates(ctx context.Context, orgID uuid.UUID, guests int, types []domain.SiteType) ([]domain.Campsite, error) {
	if m.candidates != nil {
		return m.candidates(ctx, orgID, guests, types)
	}
	var out []domain.Campsite
	for _, c := range m.sites {
		if c.OrganizationID == orgID && c.IsActive && c.MaxGuests >= guests && typeIn(c.Type, types) {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *mockCampsiteRepo) Update(ctx context.Context, c domain.Campsite) (domain.Campsite, error) {
	return m.update(ctx, c)
}
func (m *mockCampsiteRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.delete(ctx, orgID, id)
}

var _ repo.CampsiteRepo = (*mockCampsiteRepo)(nil)

func typeIn(t domain.SiteType, types []domain.SiteType) bool {
	if len(types) == 0 {
		return true
	}
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// mockReservationRepo keeps reservations in memory and applies the same
// overlap predicate as the SQL: blocking status, assigned, [in, out) overlap.
type mockReservationRepo struct {
	mu       sync.Mutex
	items    []domain.Reservation
	created  []domain.Reservation
	createFn func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	list     func(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	payments []domain.Reservation
}

func (m *mockReservationRepo) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	r.ID = uuid.New()
	m.items = append(m.items, r)
	m.created = append(m.created, r)
	return r, nil
}
func (m *mockReservationRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id && r.OrganizationID == orgID {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}
func (m *mockReservationRepo) GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	return m.GetByID(ctx, orgID, id)
}
func (m *mockReservationRepo) List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return m.list(ctx, orgID, f, p)
}
func (m *mockReservationRepo) FindOverlapping(_ context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.items {
		if r.OrganizationID != orgID || !r.Occupies(checkIn, checkOut) {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if len(campsiteIDs) > 0 && !idIn(*r.CampsiteID, campsiteIDs) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
func (m *mockReservationRepo) GetByPaymentRef(_ context.Context, ref string) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.PaymentRef != nil && *r.PaymentRef == ref {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}
func (m *mockReservationRepo) AttachPaymentRef(ctx context.Context, orgID, id uuid.UUID, ref string) (domain.Reservation, error) {
	r, err := m.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if r.PaymentRef != nil {
		return domain.Reservation{}, domain.ErrNotFound
	}
	r.PaymentRef = &ref
	return m.replace(r), nil
}
func (m *mockReservationRepo) UpdateAssignment(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	return m.replace(r), nil
}
func (m *mockReservationRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.ReservationStatus) (domain.Reservation, error) {
	r, err := m.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	r.Status = status
	return m.replace(r), nil
}
func (m *mockReservationRepo) UpdatePayment(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	m.mu.Lock()
	m.payments = append(m.payments, r)
	m.mu.Unlock()
	return m.replace(r), nil
}
func (m *mockReservationRepo) Archive(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	r, err := m.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	now := time.Now()
	r.ArchivedAt = &now
	return m.replace(r), nil
}

func (m *mockReservationRepo) replace(r domain.Reservation) domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == r.ID {
			m.items[i] = r
		}
	}
	return r
}

var _ repo.ReservationRepo = (*mockReservationRepo)(nil)

func idIn(id uuid.UUID, ids []uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// mockBlackoutRepo keeps blackouts in memory.
type mockBlackoutRepo struct {
	items []domain.BlackoutDate
}

func (m *mockBlackoutRepo) Create(_ context.Context, b domain.BlackoutDate) (domain.BlackoutDate, error) {
	b.ID = uuid.New()
	m.items = append(m.items, b)
	return b, nil
}
func (m *mockBlackoutRepo) List(_ context.Context, orgID uuid.UUID, _ *time.Time) ([]domain.BlackoutDate, error) {
	var out []domain.BlackoutDate
	for _, b := range m.items {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}
func (m *mockBlackoutRepo) FindOverlapping(_ context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time) ([]domain.BlackoutDate, error) {
	var out []domain.BlackoutDate
	for _, b := range m.items {
		if b.OrganizationID != orgID || !domain.BlackoutOverlaps(checkIn, checkOut, b.StartDate, b.EndDate) {
			continue
		}
		if b.CampsiteID != nil && len(campsiteIDs) > 0 && !idIn(*b.CampsiteID, campsiteIDs) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
func (m *mockBlackoutRepo) Delete(_ context.Context, orgID, id uuid.UUID) (domain.BlackoutDate, error) {
	for i, b := range m.items {
		if b.ID == id && b.OrganizationID == orgID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return b, nil
		}
	}
	return domain.BlackoutDate{}, domain.ErrNotFound
}

var _ repo.BlackoutRepo = (*mockBlackoutRepo)(nil)

// mockPaymentRepo keeps transactions and processed event ids in memory.
type mockPaymentRepo struct {
	mu      sync.Mutex
	txns    []domain.PaymentTransaction
	events  map[string]domain.WebhookResult
	failErr error
}

func (m *mockPaymentRepo) CreateTransaction(_ context.Context, t domain.PaymentTransaction) (domain.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	m.txns = append(m.txns, t)
	return t, nil
}
func (m *mockPaymentRepo) ListTransactions(_ context.Context, orgID, reservationID uuid.UUID) ([]domain.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PaymentTransaction
	for _, t := range m.txns {
		if t.OrganizationID == orgID && t.ReservationID == reservationID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *mockPaymentRepo) TransitionTransactions(_ context.Context, orgID uuid.UUID, ref string, from []domain.TransactionStatus, to domain.TransactionStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, t := range m.txns {
		if t.OrganizationID == orgID && t.ProviderRef == ref && slices.Contains(from, t.Status) {
			m.txns[i].Status = to
			n++
		}
	}
	return n, nil
}
func (m *mockPaymentRepo) SucceededTotal(_ context.Context, orgID, reservationID uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.txns {
		if t.OrganizationID == orgID && t.ReservationID == reservationID &&
			t.Status == domain.TxnSucceeded && t.Type != domain.TxnRefund {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}
func (m *mockPaymentRepo) RecordEvent(_ context.Context, eventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	if m.events == nil {
		m.events = map[string]domain.WebhookResult{}
	}
	if _, seen := m.events[eventID]; seen {
		return false, nil
	}
	m.events[eventID] = ""
	return true, nil
}
func (m *mockPaymentRepo) SetEventResult(_ context.Context, eventID string, result domain.WebhookResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = result
	return nil
}

var _ repo.PaymentRepo = (*mockPaymentRepo)(nil)

// mockPolicyRepo returns a fixed policy list.
type mockPolicyRepo struct {
	policies []domain.PaymentPolicy
}

func (m *mockPolicyRepo) Create(_ context.Context, p domain.PaymentPolicy) (domain.PaymentPolicy, error) {
	m.policies = append(m.policies, p)
	return p, nil
}
func (m *mockPolicyRepo) List(_ context.Context, _ uuid.UUID) ([]domain.PaymentPolicy, error) {
	return m.policies, nil
}

var _ repo.PolicyRepo = (*mockPolicyRepo)(nil)

// mockAudit records every entry.
type mockAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *mockAudit) Log(_ context.Context, e domain.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *mockAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// mockIntents stands in for the payment provider.
type mockIntents struct {
	mu       sync.Mutex
	requests []domain.IntentRequest
	createFn func(ctx context.Context, req domain.IntentRequest) (domain.PaymentIntent, error)
}

func (m *mockIntents) CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.PaymentIntent, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return domain.PaymentIntent{ID: "pi_" + req.ReservationID.String()[:8], ClientSecret: "secret_" + req.ReservationID.String()[:8]}, nil
}

var _ service.PaymentIntents = (*mockIntents)(nil)

// ---- fixtures --------------------------------------------------------------

// world bundles a fake store with its mock repos.
type world struct {
	store        *fakeStore
	campsites    *mockCampsiteRepo
	reservations *mockReservationRepo
	blackouts    *mockBlackoutRepo
	payments     *mockPaymentRepo
	policies     *mockPolicyRepo
	audit        *mockAudit
}

func newWorld() *world {
	w := &world{
		campsites:    &mockCampsiteRepo{},
		reservations: &mockReservationRepo{},
		blackouts:    &mockBlackoutRepo{},
		payments:     &mockPaymentRepo{},
		policies:     &mockPolicyRepo{},
		audit:        &mockAudit{},
	}
	w.store = &fakeStore{repos: repo.Repos{
		Campsites:    w.campsites,
		Reservations: w.reservations,
		Blackouts:    w.blackouts,
		Payments:     w.payments,
		Policies:     w.policies,
	}}
	return w
}

func (w *world) addSite(orgID uuid.UUID, code string, sortOrder int) domain.Campsite {
	c := domain.Campsite{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           code,
		Name:           "Site " + code,
		Type:           domain.SiteRVTrailer,
		MaxGuests:      6,
		BaseRate:       decimal.RequireFromString("45.00"),
		IsActive:       true,
		SortOrder:      sortOrder,
	}
	w.campsites.sites = append(w.campsites.sites, c)
	return c
}

func (w *world) addReservation(orgID uuid.UUID, campsiteID *uuid.UUID, in, out string, status domain.ReservationStatus) domain.Reservation {
	r := domain.Reservation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		GuestFirstName: "Ada",
		GuestLastName:  "Camper",
		GuestEmail:     "ada@example.com",
		CheckIn:        day(in),
		CheckOut:       day(out),
		Adults:         2,
		UnitType:       domain.SiteRVTrailer,
		CampsiteID:     campsiteID,
		Status:         status,
		PaymentStatus:  domain.PaymentUnpaid,
	}
	w.reservations.mu.Lock()
	w.reservations.items = append(w.reservations.items, r)
	w.reservations.mu.Unlock()
	return r
}

func (w *world) addBlackout(orgID uuid.UUID, campsiteID *uuid.UUID, start, end string) domain.BlackoutDate {
	b := domain.BlackoutDate{
		ID:             uuid.New(),
		OrganizationID: orgID,
		CampsiteID:     campsiteID,
		StartDate:      day(start),
		EndDate:        day(end),
	}
	w.blackouts.items = append(w.blackouts.items, b)
	return b
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixedCalendar pins "today" to the given day.
func fixedCalendar(today string) service.Calendar {
	t := day(today)
	return service.Calendar{Loc: time.UTC, Now: func() time.Time { return t.Add(12 * time.Hour) }}
}

func ptr[T any](v T) *T { return &v }
