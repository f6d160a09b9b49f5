package calendar

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"bookline/internal/profile"
)

const (
	slotStepMin = 30
	maxPerDay   = 3
	scanDays    = 7
)

// Advisor answers "is this slot free" and proposes alternatives.
//
// A nil or unreachable client means fail open: the slot is reported
// available and the booking layer's uniqueness constraint catches real
// conflicts. Suggestion scanning is bounded to scanDays days with at most
// maxPerDay slots per day; when nothing is free in that window the empty
// slice is returned and the conversation asks for a different time
// instead of retrying.
type Advisor struct {
	client    Client
	openHour  int
	closeHour int
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

func NewAdvisor(client Client, openHour, closeHour int, loc *time.Location, log *slog.Logger) *Advisor {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Advisor{
		client:    client,
		openHour:  openHour,
		closeHour: closeHour,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// IsAvailable reports whether the calendar is free for the slot.
func (a *Advisor) IsAvailable(ctx context.Context, at time.Time, durationMin int) bool {
	if a.client == nil {
		return true
	}
	free, err := a.client.CheckAvailability(ctx, at, at.Add(time.Duration(durationMin)*time.Minute))
	if err != nil {
		a.log.Warn("availability check failed open", "at", at, "err", err)
		return true
	}
	return free
}

type scoredSlot struct {
	at    time.Time
	score float64
}

// Suggest returns up to max open slots ordered by how attractive they are:
// same-day slots after the requested time first, then nearest subsequent
// days, with a bonus for the caller's known day-part preference.
func (a *Advisor) Suggest(ctx context.Context, after time.Time, durationMin, max int, prefs []string) []time.Time {
	if max <= 0 {
		return nil
	}
	if durationMin <= 0 {
		durationMin = slotStepMin
	}
	dur := time.Duration(durationMin) * time.Minute
	local := after.In(a.loc)

	var candidates []scoredSlot
	for day := 0; day < scanDays; day++ {
		date := local.AddDate(0, 0, day)
		open := time.Date(date.Year(), date.Month(), date.Day(), a.openHour, 0, 0, 0, a.loc)
		close := time.Date(date.Year(), date.Month(), date.Day(), a.closeHour, 0, 0, 0, a.loc)

		start := open
		if day == 0 {
			if boundary := nextSlotBoundary(local); boundary.After(start) {
				start = boundary
			}
		}

		busy := a.busyRanges(ctx, open, close)
		perDay := 0
		for t := start; perDay < maxPerDay && !t.Add(dur).After(close); t = t.Add(slotStepMin * time.Minute) {
			if overlapsAny(t, t.Add(dur), busy) {
				continue
			}
			score := t.Sub(after).Minutes()
			if hasDayPart(prefs, profile.DayPart(t)) {
				score -= 120
			}
			candidates = append(candidates, scoredSlot{at: t.UTC(), score: score})
			perDay++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]time.Time, len(candidates))
	for i, c := range candidates {
		out[i] = c.at
	}
	return out
}

type span struct{ start, end time.Time }

func (a *Advisor) busyRanges(ctx context.Context, from, to time.Time) []span {
	if a.client == nil {
		return nil
	}
	events, err := a.client.ListEvents(ctx, from, to)
	if err != nil {
		// Fail open: suggestions without calendar data are still useful
		// and the booking insert is the final arbiter.
		a.log.Warn("event listing failed open", "from", from, "err", err)
		return nil
	}
	spans := make([]span, 0, len(events))
	for _, e := range events {
		spans = append(spans, span{start: e.Start, end: e.End})
	}
	return spans
}

func overlapsAny(start, end time.Time, busy []span) bool {
	for _, b := range busy {
		if start.Before(b.end) && b.start.Before(end) {
			return true
		}
	}
	return false
}

func nextSlotBoundary(t time.Time) time.Time {
	step := slotStepMin * time.Minute
	return t.Truncate(step).Add(step)
}

func hasDayPart(prefs []string, part string) bool {
	for _, p := range prefs {
		if p == part {
			return true
		}
	}
	return false
}
