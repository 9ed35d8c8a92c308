package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// PaymentRepo persists payment transactions and the webhook idempotency record.
type PaymentRepo interface {
	// CreateTransaction inserts a payment attempt.
	CreateTransaction(ctx context.Context, t domain.PaymentTransaction) (domain.PaymentTransaction, error)

	// ListTransactions returns a reservation's transactions, oldest first.
	ListTransactions(ctx context.Context, orgID, reservationID uuid.UUID) ([]domain.PaymentTransaction, error)

	// TransitionTransactions moves every transaction carrying ref whose status
	// is one of from to status to and returns how many rows changed. Rows in
	// any other status are left alone, which keeps replays and out-of-order
	// deliveries inert.
	TransitionTransactions(ctx context.Context, orgID uuid.UUID, ref string, from []domain.TransactionStatus, to domain.TransactionStatus) (int64, error)

	// SucceededTotal sums succeeded non-refund transactions for a reservation.
	SucceededTotal(ctx context.Context, orgID, reservationID uuid.UUID) (decimal.Decimal, error)

	// RecordEvent inserts the event id into the idempotency table and reports
	// whether this call inserted it. A concurrent insert of the same id blocks
	// until the first transaction ends, then reports false if it committed.
	RecordEvent(ctx context.Context, eventID, eventType string) (bool, error)

	// SetEventResult stores the outcome next to a recorded event.
	SetEventResult(ctx context.Context, eventID string, result domain.WebhookResult) error
}

type pgPaymentRepo struct {
	db db
}

// NewPaymentRepo constructs a PaymentRepo backed by the provided db connection.
func NewPaymentRepo(db db) PaymentRepo {
	return &pgPaymentRepo{db: db}
}

const transactionColumns = `id, organization_id, reservation_id, amount, currency, status, txn_type,
		provider_ref, created_at, updated_at`

func (r *pgPaymentRepo) CreateTransaction(ctx context.Context, t domain.PaymentTransaction) (domain.PaymentTransaction, error) {
	q := `
		INSERT INTO payment_transactions (organization_id, reservation_id, amount, currency, status, txn_type, provider_ref)
		VALUES (@organization_id, @reservation_id, @amount, @currency, @status, @txn_type, @provider_ref)
		RETURNING ` + transactionColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"organization_id": t.OrganizationID,
		"reservation_id":  t.ReservationID,
		"amount":          t.Amount,
		"currency":        t.Currency,
		"status":          string(t.Status),
		"txn_type":        string(t.Type),
		"provider_ref":    t.ProviderRef,
	})
	result, err := scanTransaction(row)
	if err != nil {
		return domain.PaymentTransaction{}, fmt.Errorf("repo.PaymentRepo.CreateTransaction: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgPaymentRepo) ListTransactions(ctx context.Context, orgID, reservationID uuid.UUID) ([]domain.PaymentTransaction, error) {
	q := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE organization_id = @organization_id AND reservation_id = @reservation_id
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"organization_id": orgID, "reservation_id": reservationID})
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListTransactions: %w", err)
	}
	defer rows.Close()

	out := []domain.PaymentTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PaymentRepo.ListTransactions: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListTransactions: rows: %w", err)
	}
	return out, nil
}

func (r *pgPaymentRepo) TransitionTransactions(ctx context.Context, orgID uuid.UUID, ref string, from []domain.TransactionStatus, to domain.TransactionStatus) (int64, error) {
	const q = `
		UPDATE payment_transactions
		SET status = @to, updated_at = now()
		WHERE organization_id = @organization_id AND provider_ref = @ref AND status = ANY(@from)`

	statuses := make([]string, len(from))
	for i, st := range from {
		statuses[i] = string(st)
	}
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"organization_id": orgID,
		"ref":             ref,
		"from":            statuses,
		"to":              string(to),
	})
	if err != nil {
		return 0, fmt.Errorf("repo.PaymentRepo.TransitionTransactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgPaymentRepo) SucceededTotal(ctx context.Context, orgID, reservationID uuid.UUID) (decimal.Decimal, error) {
	const q = `
		SELECT COALESCE(sum(amount), 0)
		FROM payment_transactions
		WHERE organization_id = @organization_id
		  AND reservation_id = @reservation_id
		  AND status = 'succeeded'
		  AND txn_type <> 'refund'`

	var total decimal.Decimal
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"organization_id": orgID, "reservation_id": reservationID}).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("repo.PaymentRepo.SucceededTotal: %w", err)
	}
	return total, nil
}

func (r *pgPaymentRepo) RecordEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	const q = `
		INSERT INTO processed_webhook_events (event_id, event_type)
		VALUES (@event_id, @event_type)
		ON CONFLICT (event_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"event_id": eventID, "event_type": eventType})
	if err != nil {
		return false, fmt.Errorf("repo.PaymentRepo.RecordEvent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgPaymentRepo) SetEventResult(ctx context.Context, eventID string, result domain.WebhookResult) error {
	const q = `UPDATE processed_webhook_events SET result = @result WHERE event_id = @event_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"event_id": eventID, "result": string(result)}); err != nil {
		return fmt.Errorf("repo.PaymentRepo.SetEventResult: %w", err)
	}
	return nil
}

// scanTransaction maps a single database row into a domain.PaymentTransaction.
func scanTransaction(s scanner) (domain.PaymentTransaction, error) {
	var (
		t                    domain.PaymentTransaction
		id, org, reservation pgtype.UUID
		status, txnType      string
	)
	err := s.Scan(&id, &org, &reservation, &t.Amount, &t.Currency, &status, &txnType,
		&t.ProviderRef, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.PaymentTransaction{}, noRows(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	t.OrganizationID = uuid.UUID(org.Bytes)
	t.ReservationID = uuid.UUID(reservation.Bytes)
	t.Status = domain.TransactionStatus(status)
	t.Type = domain.TransactionType(txnType)
	return t, nil
}
