package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/afk-bro/watershed-campground-sub004/internal/audit"
	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/metrics"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// PaymentReconciler applies verified payment-provider events to reservations
// and their payment transactions. Providers deliver at least once and in any
// order, so every event is applied at most once and a late event for a
// reservation that has already moved on changes nothing.
type PaymentReconciler struct {
	store repo.Store
	audit audit.Logger
	log   *slog.Logger
}

// NewPaymentReconciler constructs a PaymentReconciler.
func NewPaymentReconciler(store repo.Store, auditLog audit.Logger, log *slog.Logger) *PaymentReconciler {
	return &PaymentReconciler{store: store, audit: auditLog, log: log}
}

// HandlePaymentEvent processes one event. Recording the event id is the first
// statement of the transaction and the concurrency boundary: a concurrent
// delivery of the same id waits on it and then sees the id as taken.
func (p *PaymentReconciler) HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (domain.WebhookResult, error) {
	if ev.Type != domain.EventPaymentSucceeded && ev.Type != domain.EventPaymentFailed {
		metrics.WebhookEvents.WithLabelValues(string(domain.WebhookIgnored)).Inc()
		return domain.WebhookIgnored, nil
	}
	if ev.ID == "" {
		return "", domain.Invalid("event_id", "is required")
	}

	var (
		result   domain.WebhookResult
		touched  *domain.Reservation
		mismatch bool
	)
	err := p.store.InTx(ctx, pgx.ReadCommitted, func(r repo.Repos) error {
		result, touched, mismatch = "", nil, false

		fresh, err := r.Payments.RecordEvent(ctx, ev.ID, ev.Type)
		if err != nil {
			return err
		}
		if !fresh {
			result = domain.WebhookIdempotentIgnore
			return nil
		}

		res, err := p.match(ctx, r, ev)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			result = domain.WebhookUnmatchedReservation
			return r.Payments.SetEventResult(ctx, ev.ID, result)
		case err != nil:
			return err
		}
		if !ev.BelongsTo(res) {
			// The reference is known but the intent was not opened for this
			// reservation. Nothing is applied.
			mismatch = true
			result = domain.WebhookUnmatchedReservation
			return r.Payments.SetEventResult(ctx, ev.ID, result)
		}

		if ev.Type == domain.EventPaymentSucceeded {
			if res, err = applySuccess(ctx, r, res, ev); err != nil {
				return err
			}
			result = domain.WebhookProcessedSuccess
		} else {
			if _, err := r.Payments.TransitionTransactions(ctx, res.OrganizationID, ev.PaymentRef,
				[]domain.TransactionStatus{domain.TxnPending}, domain.TxnFailed); err != nil {
				return err
			}
			result = domain.WebhookProcessedFailure
		}
		touched = &res
		return r.Payments.SetEventResult(ctx, ev.ID, result)
	})
	if err != nil {
		return "", fmt.Errorf("service.PaymentReconciler.HandlePaymentEvent: %w", err)
	}

	metrics.WebhookEvents.WithLabelValues(string(result)).Inc()
	switch {
	case mismatch:
		p.log.WarnContext(ctx, "payment event metadata does not match reservation",
			"event_id", ev.ID, "payment_ref", ev.PaymentRef,
			"event_organization_id", ev.OrganizationID, "event_reservation_id", ev.ReservationID)
	case result == domain.WebhookUnmatchedReservation:
		p.log.WarnContext(ctx, "payment event matches no reservation",
			"event_id", ev.ID, "event_type", ev.Type, "payment_ref", ev.PaymentRef)
	case result == domain.WebhookIdempotentIgnore:
		p.log.InfoContext(ctx, "payment event already processed", "event_id", ev.ID)
	}
	if touched == nil {
		return result, nil
	}

	action := domain.AuditPaymentConfirmed
	if result == domain.WebhookProcessedFailure {
		action = domain.AuditPaymentFailed
	}
	p.audit.Log(ctx, domain.AuditEntry{
		Action:         action,
		OrganizationID: touched.OrganizationID,
		NewData: map[string]any{
			"reservation_id": touched.ID,
			"event_id":       ev.ID,
			"status":         touched.Status,
			"payment_status": touched.PaymentStatus,
			"amount_paid":    touched.AmountPaid,
		},
	})
	return result, nil
}

// match locks the reservation carrying the event's payment reference.
func (p *PaymentReconciler) match(ctx context.Context, r repo.Repos, ev domain.PaymentEvent) (domain.Reservation, error) {
	if ev.PaymentRef == "" {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r.Reservations.GetByPaymentRef(ctx, ev.PaymentRef)
}

// settleable are the transaction statuses a success event moves to
// succeeded. A declined intent can still succeed on the same reference.
var settleable = []domain.TransactionStatus{domain.TxnPending, domain.TxnFailed}

// applySuccess settles the open transactions for the event's payment
// reference, recomputes amounts from succeeded transactions and confirms a
// pending reservation. Other statuses are left alone.
func applySuccess(ctx context.Context, r repo.Repos, res domain.Reservation, ev domain.PaymentEvent) (domain.Reservation, error) {
	n, err := r.Payments.TransitionTransactions(ctx, res.OrganizationID, ev.PaymentRef, settleable, domain.TxnSucceeded)
	if err != nil {
		return domain.Reservation{}, err
	}
	if n == 0 && ev.Amount.IsPositive() {
		// No attempt was recorded at booking time. Record this one unless an
		// earlier event already did.
		known, err := hasTransaction(ctx, r, res, ev.PaymentRef)
		if err != nil {
			return domain.Reservation{}, err
		}
		if !known {
			txnType := domain.TxnDeposit
			if ev.Amount.GreaterThanOrEqual(res.TotalAmount) {
				txnType = domain.TxnFull
			}
			if _, err := r.Payments.CreateTransaction(ctx, domain.PaymentTransaction{
				OrganizationID: res.OrganizationID,
				ReservationID:  res.ID,
				Amount:         ev.Amount,
				Currency:       ev.Currency,
				Status:         domain.TxnSucceeded,
				Type:           txnType,
				ProviderRef:    ev.PaymentRef,
			}); err != nil {
				return domain.Reservation{}, err
			}
		}
	}

	paid, err := r.Payments.SucceededTotal(ctx, res.OrganizationID, res.ID)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.AmountPaid = paid
	res.BalanceDue = res.TotalAmount.Sub(paid)
	switch {
	case paid.IsPositive() && !res.BalanceDue.IsPositive():
		res.PaymentStatus = domain.PaymentPaid
	case paid.IsPositive():
		res.PaymentStatus = domain.PaymentDepositPaid
	}
	if res.Status == domain.StatusPending {
		res.Status = domain.StatusConfirmed
	}
	return r.Reservations.UpdatePayment(ctx, res)
}

func hasTransaction(ctx context.Context, r repo.Repos, res domain.Reservation, ref string) (bool, error) {
	txns, err := r.Payments.ListTransactions(ctx, res.OrganizationID, res.ID)
	if err != nil {
		return false, err
	}
	for _, t := range txns {
		if t.ProviderRef == ref {
			return true, nil
		}
	}
	return false, nil
}
