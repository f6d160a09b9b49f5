package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookline/internal/profile"

	"github.com/google/uuid"
)

// EventCreator is the slice of the calendar client the orchestrator needs.
type EventCreator interface {
	CreateEvent(ctx context.Context, title string, start time.Time, durationMin int) (string, error)
}

// Service is the booking orchestrator.
//
// Write path invariants:
// - Exactly one user per mobile, resolved before the appointment insert.
// - The appointment insert is the only critical write; it is idempotent
//   under duplicate delivery via the uniqueness constraint.
// - Calendar event creation and profile updates are best-effort and never
//   roll back the appointment.
type Service struct {
	repo     Repository
	events   EventCreator
	profiles profile.Store

	toleranceMin int
	loc          *time.Location
	clock        func() time.Time
	log          *slog.Logger
}

func NewService(repo Repository, events EventCreator, profiles profile.Store, toleranceMin int, loc *time.Location, log *slog.Logger) *Service {
	if toleranceMin <= 0 {
		toleranceMin = 15
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:         repo,
		events:       events,
		profiles:     profiles,
		toleranceMin: toleranceMin,
		loc:          loc,
		clock:        time.Now,
		log:          log,
	}
}

func (s *Service) Book(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	now := s.clock().UTC()

	user, err := s.resolveUser(ctx, req, now)
	if err != nil {
		return Result{}, err
	}

	appt := Appointment{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		StartsAtUTC: req.StartsAtUTC.UTC(),
		DurationMin: req.DurationMin,
		Status:      StatusBooked,
		Notes:       req.Notes,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	appt, err = s.repo.Insert(ctx, appt, s.toleranceMin)
	if errors.Is(err, ErrSlotTaken) {
		return Result{UserID: user.ID, Message: "time taken"}, ErrSlotTaken
	}
	if err != nil {
		return Result{}, fmt.Errorf("booking: insert: %w", err)
	}

	s.createCalendarEvent(ctx, appt, user)
	s.updateProfile(ctx, req, now)

	return Result{
		Created:       true,
		AppointmentID: appt.ID,
		UserID:        user.ID,
		Message:       "booked",
	}, nil
}

func (s *Service) resolveUser(ctx context.Context, req Request, now time.Time) (User, error) {
	user, err := s.repo.GetUserByMobile(ctx, req.Mobile)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("booking: resolve user: %w", err)
	}
	return s.repo.CreateUser(ctx, User{
		ID:        uuid.NewString(),
		FullName:  req.FullName,
		Mobile:    req.Mobile,
		CreatedAt: now,
	})
}

func (s *Service) createCalendarEvent(ctx context.Context, appt Appointment, user User) {
	if s.events == nil {
		return
	}
	title := fmt.Sprintf("Appointment: %s", user.FullName)
	eventID, err := s.events.CreateEvent(ctx, title, appt.StartsAtUTC, appt.DurationMin)
	if err != nil {
		s.log.Warn("calendar event creation failed, appointment kept", "appointment_id", appt.ID, "err", err)
		return
	}
	if err := s.repo.SetCalendarEventID(ctx, appt.ID, eventID); err != nil {
		s.log.Warn("calendar event id not persisted", "appointment_id", appt.ID, "err", err)
	}
}

func (s *Service) updateProfile(ctx context.Context, req Request, now time.Time) {
	if s.profiles == nil {
		return
	}
	p, _, err := s.profiles.Get(ctx, req.Mobile)
	if err != nil {
		s.log.Warn("profile read failed, update skipped", "err", err)
		return
	}
	p.Mobile = req.Mobile
	p.FullName = req.FullName
	p.RecordBooking(now, req.DurationMin, profile.DayPart(req.StartsAtUTC.In(s.loc)))
	if err := s.profiles.Save(ctx, p); err != nil {
		s.log.Warn("profile update failed", "err", err)
	}
}

func validateRequest(req Request) error {
	if req.FullName == "" || req.Mobile == "" {
		return ErrInvalidArgument
	}
	if req.StartsAtUTC.IsZero() {
		return ErrInvalidArgument
	}
	if req.DurationMin <= 0 {
		return ErrInvalidArgument
	}
	return nil
}
