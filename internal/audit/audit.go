// Package audit delivers records of successful mutations to an external sink.
// Delivery is best effort: a failed publish is logged and never reaches the
// code that made the change.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// Logger records one audit entry. Implementations must not block the caller
// for long and must not return errors.
type Logger interface {
	Log(ctx context.Context, e domain.AuditEntry)
}

// ---- slog sink -------------------------------------------------------------

// SlogLogger writes audit entries to a structured logger. It is the sink used
// when no broker is configured.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger constructs a SlogLogger.
func NewSlogLogger(log *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log}
}

func (l *SlogLogger) Log(ctx context.Context, e domain.AuditEntry) {
	attrs := []any{
		"action", e.Action,
		"organization_id", e.OrganizationID.String(),
	}
	if e.ChangedBy != nil {
		attrs = append(attrs, "changed_by", e.ChangedBy.String())
	}
	l.log.InfoContext(ctx, "audit", attrs...)
}

// ---- RabbitMQ publisher ----------------------------------------------------

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes audit entries as persistent JSON messages to a
// durable queue on the default exchange.
type AMQPPublisher struct {
	ch      channel
	queue   string
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewAMQPPublisher constructs a publisher on an already-open channel.
func NewAMQPPublisher(ch channel, queue string, log *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue, log: log, timeout: 2 * time.Second, now: time.Now}
}

// DialAMQP connects to url, opens a channel and declares queue as durable.
// The caller closes the returned connection on shutdown.
func DialAMQP(url, queue string, log *slog.Logger) (*AMQPPublisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("audit.DialAMQP: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("audit.DialAMQP: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("audit.DialAMQP: declare %s: %w", queue, err)
	}
	return NewAMQPPublisher(ch, queue, log), conn, nil
}

func (p *AMQPPublisher) Log(ctx context.Context, e domain.AuditEntry) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		p.log.WarnContext(ctx, "audit: marshal failed", "action", e.Action, "error", err)
		return
	}

	// The request context may already be cancelled by the time the mutation
	// commits; the publish gets its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Type:         e.Action,
		Body:         body,
	})
	if err != nil {
		p.log.WarnContext(ctx, "audit: publish failed", "action", e.Action, "queue", p.queue, "error", err)
	}
}
