package profile

import (
	"context"
	"time"
)

// CallerProfile aggregates what we know about a caller across calls.
//
// It is keyed by the canonical mobile number, long-lived (about a year),
// and independent of any single call session. Only the booking path
// writes it, and always best-effort: a profile failure never blocks a
// booking.
type CallerProfile struct {
	Mobile            string     `json:"mobile"`
	FullName          string     `json:"full_name,omitempty"`
	CallCount         int        `json:"call_count"`
	PreferredDuration int        `json:"preferred_duration,omitempty"`
	PreferredTimes    []string   `json:"preferred_times,omitempty"`
	AppointmentCount  int        `json:"appointment_count"`
	LastAppointmentAt *time.Time `json:"last_appointment_at,omitempty"`
	IsReturning       bool       `json:"is_returning"`
}

// Store is the long-TTL persistence contract for caller profiles.
type Store interface {
	Get(ctx context.Context, mobile string) (CallerProfile, bool, error)
	Save(ctx context.Context, p CallerProfile) error
}

// DayPart tags an hour of day for preference tracking.
func DayPart(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// RecordBooking folds one successful booking into the profile.
func (p *CallerProfile) RecordBooking(at time.Time, durationMin int, dayPart string) {
	p.AppointmentCount++
	p.PreferredDuration = durationMin
	p.LastAppointmentAt = &at
	p.IsReturning = true
	for _, tag := range p.PreferredTimes {
		if tag == dayPart {
			return
		}
	}
	p.PreferredTimes = append(p.PreferredTimes, dayPart)
}
