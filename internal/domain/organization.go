package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every other entity carries its id.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry describes one successful mutation for the audit sink.
type AuditEntry struct {
	Action         string     `json:"action"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	ChangedBy      *uuid.UUID `json:"changed_by,omitempty"` // nil for guest and webhook actions
	OldData        any        `json:"old_data,omitempty"`
	NewData        any        `json:"new_data,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// Audit actions.
const (
	AuditReservationCreate  = "reservation.create"
	AuditReservationAssign  = "reservation.assign"
	AuditReservationStatus  = "reservation.status_change"
	AuditReservationArchive = "reservation.archive"
	AuditBlackoutCreate     = "blackout.create"
	AuditBlackoutDelete     = "blackout.delete"
	AuditCampsiteChange     = "campsite.change"
	AuditPaymentConfirmed   = "payment.confirmed"
	AuditPaymentFailed      = "payment.failed"
)
