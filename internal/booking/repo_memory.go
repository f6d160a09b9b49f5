package booking

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests. It enforces the same
// invariants as the SQL implementation, including the slot tolerance
// window under concurrent inserts.
type MemoryRepo struct {
	mu           sync.Mutex
	usersByID    map[string]User
	userIDMobile map[string]string
	appointments map[string]Appointment
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		usersByID:    make(map[string]User),
		userIDMobile: make(map[string]string),
		appointments: make(map[string]Appointment),
	}
}

func (r *MemoryRepo) GetUserByMobile(ctx context.Context, mobile string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.userIDMobile[mobile]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.usersByID[id], nil
}

func (r *MemoryRepo) CreateUser(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.userIDMobile[u.Mobile]; ok {
		return r.usersByID[id], nil
	}
	r.usersByID[u.ID] = u
	r.userIDMobile[u.Mobile] = u.ID
	return u, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, a Appointment, toleranceMin int) (Appointment, error) {
	window := time.Duration(toleranceMin) * time.Minute
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appointments {
		if existing.UserID != a.UserID || existing.Status == StatusCancelled {
			continue
		}
		delta := existing.StartsAtUTC.Sub(a.StartsAtUTC)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return Appointment{}, ErrSlotTaken
		}
	}
	r.appointments[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) SetCalendarEventID(ctx context.Context, appointmentID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[appointmentID]
	if !ok {
		return ErrNotFound
	}
	a.CalendarEventID = eventID
	a.ModificationCount++
	r.appointments[appointmentID] = a
	return nil
}

// Appointments returns a snapshot for test assertions.
func (r *MemoryRepo) Appointments() []Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		out = append(out, a)
	}
	return out
}
