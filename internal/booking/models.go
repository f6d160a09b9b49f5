package booking

import (
	"errors"
	"time"
)

// User is a caller who has booked at least once. The mobile number is
// globally unique and is the only resolution key; users are never deleted
// by this core.
type User struct {
	ID        string    `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Mobile    string    `json:"mobile" db:"mobile"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is one booked slot.
//
// Invariant: at most one non-cancelled appointment per (user_id,
// starts_at_utc) within the slot tolerance window. The database unique
// index is the source of truth; duplicate webhook deliveries therefore
// cannot create two rows.
type Appointment struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	StartsAtUTC       time.Time `json:"starts_at_utc" db:"starts_at_utc"`
	DurationMin       int       `json:"duration_min" db:"duration_min"`
	Status            Status    `json:"status" db:"status"`
	Notes             string    `json:"notes,omitempty" db:"notes"`
	CalendarEventID   string    `json:"calendar_event_id,omitempty" db:"calendar_event_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	ModifiedAt        time.Time `json:"modified_at" db:"modified_at"`
	ModificationCount int       `json:"modification_count" db:"modification_count"`
}

// Request carries the validated fields collected by the conversation.
type Request struct {
	FullName    string
	Mobile      string
	StartsAtUTC time.Time
	DurationMin int
	Notes       string
}

// Result reports the outcome of a booking attempt.
type Result struct {
	Created       bool
	AppointmentID string
	UserID        string
	Message       string
}

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrInvalidArgument = errors.New("booking: invalid argument")

	// ErrSlotTaken is the typed conflict result: the user already holds a
	// non-cancelled appointment within the tolerance window.
	ErrSlotTaken = errors.New("booking: slot taken")
)
