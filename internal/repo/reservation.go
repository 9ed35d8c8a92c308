package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
// All reads and writes except the payment-reference lookup are scoped by
// organization id.
type ReservationRepo interface {
	// Create inserts a reservation. An overlapping blocking reservation on the
	// same campsite is rejected by the storage exclusion constraint and
	// reported as a *domain.ConflictError.
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// GetByID retrieves a reservation in orgID.
	GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error)

	// List returns one page of reservations matching f, ordered by check-in,
	// and the total number of matches.
	List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error)

	// FindOverlapping returns blocking, assigned reservations whose stay
	// intersects [checkIn, checkOut). campsiteIDs narrows the search (nil means
	// every campsite); excludeID drops the reservation being modified.
	FindOverlapping(ctx context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error)

	// GetByPaymentRef locks and returns the reservation carrying ref. The
	// provider reference is unique across organizations, so this is the one
	// lookup that discovers the organization instead of receiving it.
	GetByPaymentRef(ctx context.Context, ref string) (domain.Reservation, error)

	// AttachPaymentRef stores the provider reference on a reservation that
	// has none. A reference already used elsewhere is domain.ErrConflict.
	AttachPaymentRef(ctx context.Context, orgID, id uuid.UUID, ref string) (domain.Reservation, error)

	// UpdateAssignment persists campsite, dates and the derived money fields.
	UpdateAssignment(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// UpdateStatus sets the lifecycle status.
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.ReservationStatus) (domain.Reservation, error)

	// UpdatePayment persists status and payment fields after reconciliation.
	UpdatePayment(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// Archive stamps archived_at. Returns domain.ErrNotFound when the
	// reservation does not exist or is already archived.
	Archive(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error)
}

type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `id, organization_id, guest_first_name, guest_last_name, guest_email, guest_phone,
		check_in, check_out, adults, children, unit_type, rv_length, campsite_id, status,
		total_amount, payment_ref, payment_status, amount_paid, balance_due, policy_snapshot,
		remainder_due_at, archived_at, edit_token_hash, created_at, updated_at`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	q := `
		INSERT INTO reservations (organization_id, guest_first_name, guest_last_name, guest_email, guest_phone,
		                          check_in, check_out, adults, children, unit_type, rv_length, campsite_id,
		                          status, total_amount, payment_ref, payment_status, amount_paid, balance_due,
		                          policy_snapshot, remainder_due_at, edit_token_hash)
		VALUES (@organization_id, @guest_first_name, @guest_last_name, @guest_email, @guest_phone,
		        @check_in, @check_out, @adults, @children, @unit_type, @rv_length, @campsite_id,
		        @status, @total_amount, @payment_ref, @payment_status, @amount_paid, @balance_due,
		        @policy_snapshot, @remainder_due_at, @edit_token_hash)
		RETURNING ` + reservationColumns

	snapshot := res.PolicySnapshot
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}

	args := pgx.NamedArgs{
		"organization_id":  res.OrganizationID,
		"guest_first_name": res.GuestFirstName,
		"guest_last_name":  res.GuestLastName,
		"guest_email":      res.GuestEmail,
		"guest_phone":      res.GuestPhone,
		"check_in":         res.CheckIn,
		"check_out":        res.CheckOut,
		"adults":           res.Adults,
		"children":         res.Children,
		"unit_type":        string(res.UnitType),
		"rv_length":        res.RVLength,
		"campsite_id":      res.CampsiteID,
		"status":           string(res.Status),
		"total_amount":     res.TotalAmount,
		"payment_ref":      res.PaymentRef,
		"payment_status":   string(res.PaymentStatus),
		"amount_paid":      res.AmountPaid,
		"balance_due":      res.BalanceDue,
		"policy_snapshot":  string(snapshot),
		"remainder_due_at": res.RemainderDueAt,
		"edit_token_hash":  res.EditTokenHash,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	return r.get(ctx, orgID, id, false, "repo.ReservationRepo.GetByID")
}

func (r *pgReservationRepo) GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	return r.get(ctx, orgID, id, true, "repo.ReservationRepo.GetForUpdate")
}

func (r *pgReservationRepo) get(ctx context.Context, orgID, id uuid.UUID, lock bool, op string) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = @id AND organization_id = @organization_id`
	if lock {
		q += ` FOR UPDATE`
	}

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID})
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (r *pgReservationRepo) List(ctx context.Context, orgID uuid.UUID, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	where := []string{"organization_id = @organization_id"}
	args := pgx.NamedArgs{"organization_id": orgID, "limit": p.Limit, "offset": p.Offset()}

	if f.Status != "" {
		where = append(where, "status = @status")
		args["status"] = string(f.Status)
	}
	if f.CampsiteID != nil {
		where = append(where, "campsite_id = @campsite_id")
		args["campsite_id"] = *f.CampsiteID
	}
	if f.From != nil {
		where = append(where, "check_out > @from")
		args["from"] = *f.From
	}
	if f.To != nil {
		where = append(where, "check_in < @to")
		args["to"] = *f.To
	}
	if !f.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM reservations WHERE `+cond, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.List: count: %w", err)
	}

	q := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE ` + cond + `
		ORDER BY check_in, created_at
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.List: %w", err)
	}
	out, err := collectReservations(rows, "repo.ReservationRepo.List")
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgReservationRepo) FindOverlapping(ctx context.Context, orgID uuid.UUID, campsiteIDs []uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE organization_id = @organization_id
		  AND campsite_id IS NOT NULL
		  AND status = ANY(@statuses)
		  AND check_out > @check_in
		  AND check_in < @check_out
		  AND (@all_sites OR campsite_id = ANY(@campsite_ids))
		  AND (@exclude_id::uuid IS NULL OR id <> @exclude_id::uuid)
		ORDER BY check_in`

	ids := campsiteIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"organization_id": orgID,
		"statuses":        domain.BlockingStatusValues(),
		"check_in":        checkIn,
		"check_out":       checkOut,
		"all_sites":       campsiteIDs == nil,
		"campsite_ids":    ids,
		"exclude_id":      excludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.FindOverlapping: %w", err)
	}
	return collectReservations(rows, "repo.ReservationRepo.FindOverlapping")
}

func (r *pgReservationRepo) GetByPaymentRef(ctx context.Context, ref string) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE payment_ref = @ref
		FOR UPDATE`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"ref": ref}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByPaymentRef: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) AttachPaymentRef(ctx context.Context, orgID, id uuid.UUID, ref string) (domain.Reservation, error) {
	q := `
		UPDATE reservations
		SET payment_ref = @ref, updated_at = now()
		WHERE organization_id = @organization_id AND id = @id AND payment_ref IS NULL
		RETURNING ` + reservationColumns

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"organization_id": orgID,
		"id":              id,
		"ref":             ref,
	}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.AttachPaymentRef: %w", mapWriteError(err))
	}
	return res, nil
}

func (r *pgReservationRepo) UpdateAssignment(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	q := `
		UPDATE reservations
		SET campsite_id      = @campsite_id,
		    check_in         = @check_in,
		    check_out        = @check_out,
		    total_amount     = @total_amount,
		    balance_due      = @balance_due,
		    remainder_due_at = @remainder_due_at,
		    updated_at       = now()
		WHERE id = @id AND organization_id = @organization_id
		RETURNING ` + reservationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":               res.ID,
		"organization_id":  res.OrganizationID,
		"campsite_id":      res.CampsiteID,
		"check_in":         res.CheckIn,
		"check_out":        res.CheckOut,
		"total_amount":     res.TotalAmount,
		"balance_due":      res.BalanceDue,
		"remainder_due_at": res.RemainderDueAt,
	})
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateAssignment: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgReservationRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.ReservationStatus) (domain.Reservation, error) {
	q := `
		UPDATE reservations
		SET status = @status, updated_at = now()
		WHERE id = @id AND organization_id = @organization_id
		RETURNING ` + reservationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID, "status": string(status)})
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgReservationRepo) UpdatePayment(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	q := `
		UPDATE reservations
		SET status         = @status,
		    payment_status = @payment_status,
		    amount_paid    = @amount_paid,
		    balance_due    = @balance_due,
		    updated_at     = now()
		WHERE id = @id AND organization_id = @organization_id
		RETURNING ` + reservationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":              res.ID,
		"organization_id": res.OrganizationID,
		"status":          string(res.Status),
		"payment_status":  string(res.PaymentStatus),
		"amount_paid":     res.AmountPaid,
		"balance_due":     res.BalanceDue,
	})
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdatePayment: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) Archive(ctx context.Context, orgID, id uuid.UUID) (domain.Reservation, error) {
	q := `
		UPDATE reservations
		SET archived_at = now(), updated_at = now()
		WHERE id = @id AND organization_id = @organization_id AND archived_at IS NULL
		RETURNING ` + reservationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "organization_id": orgID})
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Archive: %w", err)
	}
	return result, nil
}

func collectReservations(rows pgx.Rows, op string) ([]domain.Reservation, error) {
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// scanReservation maps a single database row into a domain.Reservation.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res                          domain.Reservation
		id, org, campsite            pgtype.UUID
		checkIn, checkOut, remainder pgtype.Date
		unitType, status, payStatus  string
		snapshot                     []byte
	)
	err := s.Scan(&id, &org, &res.GuestFirstName, &res.GuestLastName, &res.GuestEmail, &res.GuestPhone,
		&checkIn, &checkOut, &res.Adults, &res.Children, &unitType, &res.RVLength, &campsite, &status,
		&res.TotalAmount, &res.PaymentRef, &payStatus, &res.AmountPaid, &res.BalanceDue, &snapshot,
		&remainder, &res.ArchivedAt, &res.EditTokenHash, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return domain.Reservation{}, noRows(err)
	}

	res.ID = uuid.UUID(id.Bytes)
	res.OrganizationID = uuid.UUID(org.Bytes)
	res.CampsiteID = uuidPtr(campsite)
	res.CheckIn = checkIn.Time
	res.CheckOut = checkOut.Time
	res.RemainderDueAt = datePtr(remainder)
	res.UnitType = domain.SiteType(unitType)
	res.Status = domain.ReservationStatus(status)
	res.PaymentStatus = domain.PaymentStatus(payStatus)
	res.PolicySnapshot = snapshot
	return res, nil
}
