package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookline/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the persistence contract for users and appointments.
//
// CreateUser must resolve a concurrent-creation race by returning the
// existing row, never producing two users for one mobile. Insert must
// detect the slot-uniqueness conflict and report it as ErrSlotTaken.
type Repository interface {
	GetUserByMobile(ctx context.Context, mobile string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	Insert(ctx context.Context, a Appointment, toleranceMin int) (Appointment, error)
	SetCalendarEventID(ctx context.Context, appointmentID, eventID string) error
}

const pgUniqueViolation = "23505"

// SQLRepository implements Repository over Postgres via database/sql.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) GetUserByMobile(ctx context.Context, mobile string) (User, error) {
	const q = `
SELECT id, full_name, mobile, created_at
FROM users
WHERE mobile = $1
`
	var u User
	if err := r.db.QueryRowContext(ctx, q, mobile).Scan(&u.ID, &u.FullName, &u.Mobile, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("booking: get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts the user, yielding to any concurrently created row
// for the same mobile: ON CONFLICT DO NOTHING returns no row, and the
// now-existing row is re-read instead.
func (r *SQLRepository) CreateUser(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (id, full_name, mobile, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (mobile) DO NOTHING
RETURNING id, full_name, mobile, created_at
`
	var out User
	err := r.db.QueryRowContext(ctx, q, u.ID, u.FullName, u.Mobile, u.CreatedAt).
		Scan(&out.ID, &out.FullName, &out.Mobile, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.GetUserByMobile(ctx, u.Mobile)
	}
	if err != nil {
		return User{}, fmt.Errorf("booking: create user: %w", err)
	}
	return out, nil
}

// Insert writes the appointment inside a transaction. The in-transaction
// range check enforces the tolerance window; the partial unique index on
// (user_id, starts_at_utc) remains the hard guard under concurrency, so a
// unique violation also maps to ErrSlotTaken.
func (r *SQLRepository) Insert(ctx context.Context, a Appointment, toleranceMin int) (Appointment, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const conflictQ = `
SELECT COUNT(*)
FROM appointments
WHERE user_id = $1
  AND status <> 'cancelled'
  AND starts_at_utc BETWEEN $2 AND $3
`
		window := time.Duration(toleranceMin) * time.Minute
		var n int
		if err := tx.QueryRowContext(ctx, conflictQ,
			a.UserID,
			a.StartsAtUTC.Add(-window),
			a.StartsAtUTC.Add(window),
		).Scan(&n); err != nil {
			return fmt.Errorf("booking: conflict check: %w", err)
		}
		if n > 0 {
			return ErrSlotTaken
		}

		const insertQ = `
INSERT INTO appointments
  (id, user_id, starts_at_utc, duration_min, status, notes, calendar_event_id, created_at, modified_at, modification_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
		_, err := tx.ExecContext(ctx, insertQ,
			a.ID, a.UserID, a.StartsAtUTC, a.DurationMin, a.Status,
			a.Notes, a.CalendarEventID, a.CreatedAt, a.ModifiedAt, a.ModificationCount,
		)
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		if err != nil {
			return fmt.Errorf("booking: insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (r *SQLRepository) SetCalendarEventID(ctx context.Context, appointmentID, eventID string) error {
	const q = `
UPDATE appointments
SET calendar_event_id = $2,
    modified_at = NOW(),
    modification_count = modification_count + 1
WHERE id = $1
`
	if _, err := r.db.ExecContext(ctx, q, appointmentID, eventID); err != nil {
		return fmt.Errorf("booking: set calendar event: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
