// Package repo contains all database access logic for the booking service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL, type mapping and translation of
// Postgres error codes into domain errors. Every query is parameterized by
// organization id; there is no unscoped read.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Organizations OrganizationRepo
	Campsites     CampsiteRepo
	Reservations  ReservationRepo
	Blackouts     BlackoutRepo
	Payments      PaymentRepo
	Policies      PolicyRepo
}

// NewRepos binds all repositories to db.
func NewRepos(db db) Repos {
	return Repos{
		Organizations: NewOrganizationRepo(db),
		Campsites:     NewCampsiteRepo(db),
		Reservations:  NewReservationRepo(db),
		Blackouts:     NewBlackoutRepo(db),
		Payments:      NewPaymentRepo(db),
		Policies:      NewPolicyRepo(db),
	}
}

// Store hands out repositories, either on the pool or inside a transaction.
// Services depend on this interface so tests can run fn against fakes.
type Store interface {
	// Repos returns repositories that run each statement on its own.
	Repos() Repos

	// InTx runs fn with repositories bound to one transaction at the given
	// isolation level. The transaction commits when fn returns nil and rolls
	// back otherwise. Serialization failures surface as a
	// domain.ConflictError of kind ConflictConcurrentWrite; nothing is retried.
	InTx(ctx context.Context, iso pgx.TxIsoLevel, fn func(Repos) error) error
}

type pgStore struct {
	pool  *pgxpool.Pool
	repos Repos
}

// NewStore constructs a Store backed by pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, repos: NewRepos(pool)}
}

func (s *pgStore) Repos() Repos { return s.repos }

func (s *pgStore) InTx(ctx context.Context, iso pgx.TxIsoLevel, fn func(Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return fmt.Errorf("repo.Store.InTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after a successful commit

	if err := fn(NewRepos(tx)); err != nil {
		// Reads may also fail with a serialization error under Serializable.
		return mapWriteError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Store.InTx: commit: %w", mapWriteError(err))
	}
	return nil
}

// Postgres SQLSTATE codes translated by mapWriteError.
const (
	codeExclusionViolation   = "23P01"
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapWriteError turns constraint and serialization failures into domain
// errors. Other errors pass through unchanged.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return &domain.ConflictError{Kind: domain.ConflictReservation}
	case codeSerializationFailure, codeDeadlockDetected:
		return &domain.ConflictError{Kind: domain.ConflictConcurrentWrite}
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: record is still referenced (%s)", domain.ErrConflict, pgErr.ConstraintName)
	case codeUniqueViolation:
		return fmt.Errorf("%w: duplicate value violates %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// noRows maps pgx.ErrNoRows to domain.ErrNotFound.
func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func datePtr(v pgtype.Date) *time.Time {
	if !v.Valid {
		return nil
	}
	d := v.Time
	return &d
}
