package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/afk-bro/watershed-campground-sub004/internal/audit"
	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/metrics"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// ReservationService owns every write to a reservation's (campsite, check-in,
// check-out) triple. Each such write re-runs the availability checks inside
// a serializable transaction; the exclusion constraint on reservations backs
// it up for writers that commit between the check and the insert.
type ReservationService struct {
	store   repo.Store
	audit   audit.Logger
	cal     Calendar
	intents PaymentIntents
}

// PaymentIntents opens provider payment intents for guest bookings.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.PaymentIntent, error)
}

// NewReservationService constructs a ReservationService. With a nil intents
// guest bookings are created without online payment.
func NewReservationService(store repo.Store, auditLog audit.Logger, cal Calendar, intents PaymentIntents) *ReservationService {
	return &ReservationService{store: store, audit: auditLog, cal: cal, intents: intents}
}

// paymentCurrency is the currency recorded on booking-time payment intents.
const paymentCurrency = "cad"

var validate = validator.New()

// Booking is the guest-facing part of a new reservation.
type Booking struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	UnitType   domain.SiteType
	RVLength   *int
	CampsiteID *uuid.UUID
}

// GuestBooking is what a guest receives once, at booking time.
type GuestBooking struct {
	Reservation domain.Reservation
	EditToken   string
	// ClientSecret confirms the payment intent in the guest's browser. It is
	// empty when nothing is due online.
	ClientSecret string
}

// ---- create ----------------------------------------------------------------

// CreateGuest books b for a guest. A campsite is required and every check
// applies. When a deposit is due a payment intent is opened for it; the
// intent reference is always chosen here, never by the guest. The edit token
// is shown once; only its hash is stored.
func (s *ReservationService) CreateGuest(ctx context.Context, orgID uuid.UUID, b Booking) (GuestBooking, error) {
	if err := requirePublicTenant(orgID); err != nil {
		return GuestBooking{}, fmt.Errorf("service.ReservationService.CreateGuest: %w", err)
	}
	if b.CampsiteID == nil {
		return GuestBooking{}, domain.Invalid("campsite_id", "is required")
	}
	token, hash, err := newEditToken()
	if err != nil {
		return GuestBooking{}, fmt.Errorf("service.ReservationService.CreateGuest: %w", err)
	}

	res, secret, err := s.create(ctx, orgID, b, domain.StatusPending, hash, domain.Overrides{}, nil, s.intents != nil)
	if err != nil {
		return GuestBooking{}, fmt.Errorf("service.ReservationService.CreateGuest: %w", err)
	}
	return GuestBooking{Reservation: res, EditToken: token, ClientSecret: secret}, nil
}

// CreateAdmin records a booking entered by an operator. The campsite may be
// left unassigned and status may be pending or confirmed. ov may waive the
// blackout and past check-in checks; reservation overlap is always enforced.
func (s *ReservationService) CreateAdmin(ctx context.Context, orgID, userID uuid.UUID, b Booking, status domain.ReservationStatus, ov domain.Overrides) (domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.CreateAdmin: %w", err)
	}
	if status == "" {
		status = domain.StatusConfirmed
	}
	if status != domain.StatusPending && status != domain.StatusConfirmed {
		return domain.Reservation{}, domain.Invalid("status", "new reservations start as pending or confirmed")
	}

	res, _, err := s.create(ctx, orgID, b, status, "", ov, &userID, false)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.CreateAdmin: %w", err)
	}
	return res, nil
}

// create runs the guarded insert. With collect set, a positive deposit is
// charged through a payment intent opened before the transaction commits, so
// a rolled-back booking never carries a reference and a committed one always
// does. It returns the intent's client secret, if any.
func (s *ReservationService) create(ctx context.Context, orgID uuid.UUID, b Booking, status domain.ReservationStatus,
	tokenHash string, ov domain.Overrides, changedBy *uuid.UUID, collect bool) (domain.Reservation, string, error) {

	if err := validateBooking(b); err != nil {
		return domain.Reservation{}, "", err
	}
	ov.SkipConflictCheck = false

	res := domain.Reservation{
		OrganizationID: orgID,
		GuestFirstName: strings.TrimSpace(b.FirstName),
		GuestLastName:  strings.TrimSpace(b.LastName),
		GuestEmail:     strings.TrimSpace(b.Email),
		GuestPhone:     strings.TrimSpace(b.Phone),
		CheckIn:        b.CheckIn,
		CheckOut:       b.CheckOut,
		Adults:         b.Adults,
		Children:       b.Children,
		UnitType:       b.UnitType,
		RVLength:       b.RVLength,
		CampsiteID:     b.CampsiteID,
		Status:         status,
		PaymentStatus:  domain.PaymentUnpaid,
		EditTokenHash:  tokenHash,
	}

	var (
		created domain.Reservation
		secret  string
	)
	err := s.store.InTx(ctx, pgx.Serializable, func(r repo.Repos) error {
		secret = ""
		site := domain.Campsite{Type: b.UnitType}
		if res.CampsiteID != nil {
			var err error
			site, err = s.guard(ctx, r, res, ov, nil)
			if err != nil {
				return err
			}
		} else if !ov.AllowPastCheckIn && res.CheckIn.Before(s.cal.Today()) {
			return domain.Invalid("check_in", domain.ReasonPastCheckIn.Message())
		}

		policy, err := selectPolicy(ctx, r, orgID, site, res.CheckIn)
		if err != nil {
			return err
		}
		if res.CampsiteID != nil {
			res.TotalAmount = stayTotal(site, res.CheckIn, res.CheckOut)
		}
		res.BalanceDue = res.TotalAmount
		res.RemainderDueAt = policy.RemainderDueAt(res.CheckIn)
		deposit := policy.DepositDue(res.TotalAmount)
		if res.PolicySnapshot, err = snapshot(policy, deposit); err != nil {
			return err
		}

		if created, err = r.Reservations.Create(ctx, res); err != nil {
			return err
		}
		if !collect || !deposit.IsPositive() {
			return nil
		}

		intent, err := s.intents.CreateIntent(ctx, domain.IntentRequest{
			OrganizationID: orgID,
			ReservationID:  created.ID,
			Amount:         deposit,
			Currency:       paymentCurrency,
			ReceiptEmail:   created.GuestEmail,
		})
		if err != nil {
			return err
		}
		if created, err = r.Reservations.AttachPaymentRef(ctx, orgID, created.ID, intent.ID); err != nil {
			return err
		}
		txnType := domain.TxnDeposit
		if deposit.Equal(res.TotalAmount) {
			txnType = domain.TxnFull
		}
		_, err = r.Payments.CreateTransaction(ctx, domain.PaymentTransaction{
			OrganizationID: orgID,
			ReservationID:  created.ID,
			Amount:         deposit,
			Currency:       paymentCurrency,
			Status:         domain.TxnPending,
			Type:           txnType,
			ProviderRef:    intent.ID,
		})
		secret = intent.ClientSecret
		return err
	})
	if err != nil {
		countConflict(err)
		return domain.Reservation{}, "", err
	}

	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditReservationCreate,
		OrganizationID: orgID,
		ChangedBy:      changedBy,
		NewData:        created,
	})
	return created, secret, nil
}

// ---- assign / reschedule ---------------------------------------------------

// AssignOrReschedule moves reservation id to a new campsite and/or new dates.
// The reservation is excluded from its own conflict set. On a collision the
// returned error is a *domain.ConflictError naming what is in the way; no
// other campsite is tried.
func (s *ReservationService) AssignOrReschedule(ctx context.Context, orgID, userID, id uuid.UUID, a domain.Assignment, ov domain.Overrides) (domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.AssignOrReschedule: %w", err)
	}
	if err := validateAssignment(a); err != nil {
		return domain.Reservation{}, err
	}
	ov.SkipConflictCheck = false

	var before, after domain.Reservation
	err := s.store.InTx(ctx, pgx.Serializable, func(r repo.Repos) error {
		var err error
		if before, err = r.Reservations.GetForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if before.ArchivedAt != nil || !domain.IsBlockingStatus(before.Status) {
			return domain.Invalid("status", fmt.Sprintf("a %s reservation cannot be moved", before.Status))
		}

		next := before
		if a.Unassign {
			next.CampsiteID = nil
		} else if a.CampsiteID != nil {
			next.CampsiteID = a.CampsiteID
		}
		if a.CheckIn != nil {
			next.CheckIn = *a.CheckIn
		}
		if a.CheckOut != nil {
			next.CheckOut = *a.CheckOut
		}
		if err := validateStay(next.CheckIn, next.CheckOut, next.Guests()); err != nil {
			return err
		}

		// A stay already under way keeps its past check-in.
		check := ov
		if next.CheckIn.Equal(before.CheckIn) {
			check.AllowPastCheckIn = true
		}

		if next.CampsiteID != nil {
			site, err := s.guard(ctx, r, next, check, &before.ID)
			if err != nil {
				return err
			}
			next.TotalAmount = stayTotal(site, next.CheckIn, next.CheckOut)
		} else {
			if !check.AllowPastCheckIn && next.CheckIn.Before(s.cal.Today()) {
				return domain.Invalid("check_in", domain.ReasonPastCheckIn.Message())
			}
			next.TotalAmount = decimal.Zero
		}
		next.BalanceDue = next.TotalAmount.Sub(next.AmountPaid)
		next.RemainderDueAt = remainderFromSnapshot(before, next.CheckIn)

		after, err = r.Reservations.UpdateAssignment(ctx, next)
		return err
	})
	if err != nil {
		countConflict(err)
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.AssignOrReschedule: %w", err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditReservationAssign,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		OldData:        before,
		NewData:        after,
	})
	return after, nil
}

// guard runs the single-candidate checks for res on its campsite and rejects
// the write when they fail or when the unit does not suit the site.
func (s *ReservationService) guard(ctx context.Context, r repo.Repos, res domain.Reservation, ov domain.Overrides, exclude *uuid.UUID) (domain.Campsite, error) {
	req := domain.AvailabilityRequest{
		CampsiteID: *res.CampsiteID,
		CheckIn:    res.CheckIn,
		CheckOut:   res.CheckOut,
		Guests:     res.Guests(),
	}
	result, site, err := evaluateCandidate(ctx, r, res.OrganizationID, req, ov, s.cal.Today(), exclude)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Campsite{}, domain.Invalid("campsite_id", "unknown campsite")
	}
	if err != nil {
		return domain.Campsite{}, err
	}
	if !result.Available {
		return domain.Campsite{}, rejection(result)
	}
	if err := checkUnitFit(site, res.UnitType, res.RVLength); err != nil {
		return domain.Campsite{}, err
	}
	return site, nil
}

// ---- status / archive ------------------------------------------------------

// UpdateStatus moves reservation id along the status machine. None of the
// allowed transitions enters a blocking status, so the guard does not run.
func (s *ReservationService) UpdateStatus(ctx context.Context, orgID, userID, id uuid.UUID, to domain.ReservationStatus) (domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdateStatus: %w", err)
	}
	if !to.Valid() {
		return domain.Reservation{}, domain.Invalid("status", "unknown status")
	}

	var before, after domain.Reservation
	err := s.store.InTx(ctx, pgx.ReadCommitted, func(r repo.Repos) error {
		var err error
		if before, err = r.Reservations.GetForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if before.ArchivedAt != nil {
			return domain.Invalid("status", "archived reservations cannot change status")
		}
		if !domain.CanTransition(before.Status, to) {
			return domain.Invalid("status", fmt.Sprintf("cannot move from %s to %s", before.Status, to))
		}
		after, err = r.Reservations.UpdateStatus(ctx, orgID, id, to)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdateStatus: %w", err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditReservationStatus,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		OldData:        map[string]any{"status": before.Status},
		NewData:        map[string]any{"status": after.Status},
	})
	return after, nil
}

// Archive soft-deletes a terminal reservation.
func (s *ReservationService) Archive(ctx context.Context, orgID, userID, id uuid.UUID) (domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Archive: %w", err)
	}
	var archived domain.Reservation
	err := s.store.InTx(ctx, pgx.ReadCommitted, func(r repo.Repos) error {
		cur, err := r.Reservations.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if !cur.Status.IsTerminal() {
			return domain.Invalid("status", "only cancelled, no-show or checked-out reservations can be archived")
		}
		archived, err = r.Reservations.Archive(ctx, orgID, id)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Archive: %w", err)
	}

	s.audit.Log(ctx, domain.AuditEntry{
		Action:         domain.AuditReservationArchive,
		OrganizationID: orgID,
		ChangedBy:      &userID,
		NewData:        map[string]any{"id": archived.ID, "archived_at": archived.ArchivedAt},
	})
	return archived, nil
}

// ---- reads -----------------------------------------------------------------

// Get returns one reservation in orgID.
func (s *ReservationService) Get(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	res, err := s.store.Repos().Reservations.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	return res, nil
}

// GetWithToken returns the reservation when token matches its edit token.
// Any mismatch is reported as domain.ErrNotFound.
func (s *ReservationService) GetWithToken(ctx context.Context, orgID, id uuid.UUID, token string) (domain.Reservation, error) {
	if err := requirePublicTenant(orgID); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetWithToken: %w", err)
	}
	res, err := s.store.Repos().Reservations.GetByID(ctx, orgID, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetWithToken: %w", err)
	}
	if res.EditTokenHash == "" || token == "" ||
		bcrypt.CompareHashAndPassword([]byte(res.EditTokenHash), []byte(token)) != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetWithToken: %w", domain.ErrNotFound)
	}
	return res, nil
}

// List returns one page of reservations and the total matching count.
func (s *ReservationService) List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	if err := requireAdminTenant(orgID); err != nil {
		return nil, 0, fmt.Errorf("service.ReservationService.List: %w", err)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.Invalid("status", "unknown status")
	}
	items, total, err := s.store.Repos().Reservations.List(ctx, orgID, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ReservationService.List: %w", err)
	}
	return items, total, nil
}

// ---- helpers ---------------------------------------------------------------

func validateBooking(b Booking) error {
	errs := []error{validateStay(b.CheckIn, b.CheckOut, b.Adults+b.Children)}
	if strings.TrimSpace(b.FirstName) == "" {
		errs = append(errs, domain.Invalid("first_name", "is required"))
	}
	if strings.TrimSpace(b.LastName) == "" {
		errs = append(errs, domain.Invalid("last_name", "is required"))
	}
	if err := validate.Var(strings.TrimSpace(b.Email), "required,email"); err != nil {
		errs = append(errs, domain.Invalid("email", "must be a valid email address"))
	}
	if b.Adults < 1 {
		errs = append(errs, domain.Invalid("adults", "at least one adult is required"))
	}
	if b.Children < 0 {
		errs = append(errs, domain.Invalid("children", "must not be negative"))
	}
	if !b.UnitType.Valid() {
		errs = append(errs, domain.Invalid("unit_type", "unknown unit type"))
	}
	if b.RVLength != nil && *b.RVLength < 1 {
		errs = append(errs, domain.Invalid("rv_length", "must be a positive number of feet"))
	}
	return errors.Join(errs...)
}

func validateAssignment(a domain.Assignment) error {
	if a.Unassign && a.CampsiteID != nil {
		return domain.Invalid("campsite_id", "cannot assign and unassign at once")
	}
	if !a.Unassign && a.CampsiteID == nil && a.CheckIn == nil && a.CheckOut == nil {
		return domain.Invalid("assignment", "nothing to change")
	}
	return nil
}

func stayTotal(site domain.Campsite, checkIn, checkOut time.Time) decimal.Decimal {
	return site.BaseRate.Mul(decimal.NewFromInt(int64(domain.NightsBetween(checkIn, checkOut))))
}

func selectPolicy(ctx context.Context, r repo.Repos, orgID uuid.UUID, site domain.Campsite, checkIn time.Time) (domain.PaymentPolicy, error) {
	policies, err := r.Policies.List(ctx, orgID)
	if err != nil {
		return domain.PaymentPolicy{}, err
	}
	if p, ok := domain.SelectPolicy(policies, site, checkIn); ok {
		return p, nil
	}
	return domain.DefaultPolicy, nil
}

func snapshot(p domain.PaymentPolicy, deposit decimal.Decimal) (json.RawMessage, error) {
	snap := domain.PolicySnapshot{
		Name:             p.Name,
		Type:             p.Type,
		DepositValue:     p.DepositValue,
		DepositDue:       deposit,
		RemainderDueDays: p.RemainderDueDays,
	}
	if p.ID != uuid.Nil {
		id := p.ID
		snap.PolicyID = &id
	}
	return json.Marshal(snap)
}

// remainderFromSnapshot recomputes the balance due date for new check-in
// dates using the policy the guest agreed to at booking time.
func remainderFromSnapshot(res domain.Reservation, checkIn time.Time) *time.Time {
	var snap domain.PolicySnapshot
	if len(res.PolicySnapshot) == 0 || json.Unmarshal(res.PolicySnapshot, &snap) != nil {
		return res.RemainderDueAt
	}
	p := domain.PaymentPolicy{Type: snap.Type, RemainderDueDays: snap.RemainderDueDays}
	return p.RemainderDueAt(checkIn)
}

func newEditToken() (token, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("edit token: %w", err)
	}
	token = hex.EncodeToString(buf)
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("edit token: %w", err)
	}
	return token, string(h), nil
}

func countConflict(err error) {
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		metrics.ReservationConflicts.WithLabelValues(string(ce.Kind)).Inc()
	}
}
