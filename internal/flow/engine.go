package flow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"bookline/internal/booking"
	"bookline/internal/normalize"
	"bookline/internal/profile"
	"bookline/internal/session"
)

const (
	defaultTurnBudget  = 3 * time.Second
	defaultDurationMin = 30
	maxAlternatives    = 3
)

// TurnInput is one inbound webhook turn, already decoded from the wire.
type TurnInput struct {
	CallID string
	From   string
	Speech string
	Digits string
}

// Reply is what the call should say next. Terminal replies hang up.
type Reply struct {
	Say      string
	Terminal bool
}

// Availability is the slice of the calendar advisor the engine needs.
type Availability interface {
	IsAvailable(ctx context.Context, at time.Time, durationMin int) bool
	Suggest(ctx context.Context, after time.Time, durationMin, max int, prefs []string) []time.Time
}

// Booker commits a confirmed appointment.
type Booker interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
}

// Config wires the engine's collaborators. Advisor and Profiles may be
// nil; the engine then skips availability advice and caller recognition.
type Config struct {
	Sessions   session.Store
	Profiles   profile.Store
	Normalizer *normalize.Normalizer
	Advisor    Availability
	Booker     Booker

	OpenHour   int
	CloseHour  int
	Location   *time.Location
	TurnBudget time.Duration
	Log        *slog.Logger
}

// Engine drives one conversation turn at a time: load session, normalize
// the input for the current step, transition, run effects, persist.
type Engine struct {
	sessions session.Store
	profiles profile.Store
	norm     *normalize.Normalizer
	advisor  Availability
	booker   Booker

	openHour   int
	closeHour  int
	loc        *time.Location
	turnBudget time.Duration
	log        *slog.Logger
	clock      func() time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TurnBudget <= 0 {
		cfg.TurnBudget = defaultTurnBudget
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Engine{
		sessions:   cfg.Sessions,
		profiles:   cfg.Profiles,
		norm:       cfg.Normalizer,
		advisor:    cfg.Advisor,
		booker:     cfg.Booker,
		openHour:   cfg.OpenHour,
		closeHour:  cfg.CloseHour,
		loc:        cfg.Location,
		turnBudget: cfg.TurnBudget,
		log:        cfg.Log,
		clock:      time.Now,
	}
}

// HandleTurn processes one webhook turn end to end. The whole turn runs
// under the turn budget so a slow dependency cannot stall the call.
func (e *Engine) HandleTurn(ctx context.Context, in TurnInput) (Reply, error) {
	if in.CallID == "" {
		return Reply{Say: promptFallback, Terminal: true}, errors.New("flow: missing call id")
	}
	ctx, cancel := context.WithTimeout(ctx, e.turnBudget)
	defer cancel()
	now := e.clock().UTC()

	sess, found, err := e.sessions.Get(ctx, in.CallID)
	if err != nil {
		// The store degrades internally; an error here still yields a
		// usable fresh session.
		e.log.Warn("session load failed, starting fresh", "call_id", in.CallID, "err", err)
	}
	if !found {
		sess = e.enterCall(ctx, in)
		if !hasInput(in) {
			say := promptGreeting
			if sess.CurrentStep == session.StepAskTime {
				say = promptWelcomeBack(sess.Fields.FullName)
			}
			return e.persist(ctx, sess, now, Reply{Say: say})
		}
	}

	input := e.resolve(ctx, &sess, in, now)
	out := Transition(sess, input, e.loc)

	if out.Missed {
		sess.Misses++
	} else {
		sess.Misses = 0
	}
	sess.Fields = out.Fields
	sess.CurrentStep = out.Next

	if out.Book {
		return e.book(ctx, sess, now)
	}
	if out.Next.Terminal() {
		e.endCall(ctx, in.CallID)
		return Reply{Say: out.Say, Terminal: true}, nil
	}
	return e.persist(ctx, sess, now, Reply{Say: out.Say})
}

// enterCall builds the first-turn session. A recognized returning caller
// skips straight to the time question with name and mobile prefilled.
func (e *Engine) enterCall(ctx context.Context, in TurnInput) session.CallSession {
	sess := session.New(in.CallID)
	if e.profiles == nil {
		return sess
	}
	mobile, ok := e.norm.CanonicalPhone(in.From)
	if !ok {
		return sess
	}
	sess.ProfileRef = mobile

	p, found, err := e.profiles.Get(ctx, mobile)
	if err != nil {
		e.log.Warn("profile lookup failed", "err", err)
		return sess
	}
	if !found {
		return sess
	}
	p.CallCount++
	if err := e.profiles.Save(ctx, p); err != nil {
		e.log.Warn("profile call count not saved", "err", err)
	}
	if p.IsReturning && p.FullName != "" {
		sess.CurrentStep = session.StepAskTime
		sess.Fields.FullName = p.FullName
		sess.Fields.Mobile = mobile
	}
	return sess
}

// resolve normalizes the raw turn for the current step and records the
// attempt on the session's audit trail.
func (e *Engine) resolve(ctx context.Context, sess *session.CallSession, in TurnInput, now time.Time) Input {
	var input Input
	var extracted string

	switch sess.CurrentStep {
	case session.StepAskName:
		if name, err := e.norm.Name(ctx, in.Speech); err == nil {
			input.Name = name
			extracted = name
		}
	case session.StepConfirmName, session.StepConfirm:
		input.Verdict = normalize.ClassifyInput(in.Speech, in.Digits)
		extracted = input.Verdict.String()
	case session.StepAskMobile:
		if phone, err := e.norm.Phone(ctx, in.Speech, in.Digits); err == nil {
			input.Phone = phone
			extracted = phone
		}
	case session.StepAskTime:
		t, err := e.norm.Time(ctx, in.Speech)
		switch {
		case err == nil:
			input.Time = t
			extracted = t.Format(time.RFC3339)
			e.assess(ctx, sess, &input)
		case errors.Is(err, normalize.ErrPastTime):
			input.TimeInPast = true
		}
	case session.StepAskDuration:
		if d, err := e.norm.Duration(ctx, in.Speech, in.Digits); err == nil {
			input.DurationMin = d
			extracted = strconv.Itoa(d)
		}
	}

	kind, raw := turnKind(in)
	sess.RecordInput(now, kind, raw, extracted)
	return input
}

// assess checks an understood time against opening hours and the
// calendar, collecting alternatives when it cannot be honored.
func (e *Engine) assess(ctx context.Context, sess *session.CallSession, input *Input) {
	dur := sess.Fields.DurationMin
	if dur == 0 {
		dur = defaultDurationMin
	}

	input.InHours = e.withinHours(input.Time, dur)
	if input.InHours {
		input.Available = e.advisor == nil || e.advisor.IsAvailable(ctx, input.Time, dur)
	}
	if (!input.InHours || !input.Available) && e.advisor != nil {
		input.Alternatives = e.advisor.Suggest(ctx, input.Time, dur, maxAlternatives, e.prefs(ctx, sess))
	}
}

func (e *Engine) withinHours(t time.Time, durationMin int) bool {
	local := t.In(e.loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), e.openHour, 0, 0, 0, e.loc)
	close := time.Date(local.Year(), local.Month(), local.Day(), e.closeHour, 0, 0, 0, e.loc)
	end := local.Add(time.Duration(durationMin) * time.Minute)
	return !local.Before(open) && !end.After(close)
}

func (e *Engine) prefs(ctx context.Context, sess *session.CallSession) []string {
	if e.profiles == nil || sess.ProfileRef == "" {
		return nil
	}
	p, found, err := e.profiles.Get(ctx, sess.ProfileRef)
	if err != nil || !found {
		return nil
	}
	return p.PreferredTimes
}

// book runs the booking effect on the Confirm -> Booked edge. A conflict
// reopens the time question with alternatives; any other failure reopens
// it with an apology. Only success ends the call.
func (e *Engine) book(ctx context.Context, sess session.CallSession, now time.Time) (Reply, error) {
	req := booking.Request{
		FullName:    sess.Fields.FullName,
		Mobile:      sess.Fields.Mobile,
		StartsAtUTC: *sess.Fields.StartsAtUTC,
		DurationMin: sess.Fields.DurationMin,
		Notes:       sess.Fields.Notes,
	}

	_, err := e.booker.Book(ctx, req)
	switch {
	case err == nil:
		say := promptBooked(sess.Fields, e.loc)
		e.endCall(ctx, sess.CallID)
		return Reply{Say: say, Terminal: true}, nil

	case errors.Is(err, booking.ErrSlotTaken):
		var alts []time.Time
		if e.advisor != nil {
			alts = e.advisor.Suggest(ctx, req.StartsAtUTC, req.DurationMin, maxAlternatives, e.prefs(ctx, &sess))
		}
		sess.CurrentStep = session.StepAskTime
		sess.Fields.StartsAtUTC = nil
		return e.persist(ctx, sess, now, Reply{Say: promptSlotTaken(alts, e.loc)})

	default:
		e.log.Error("booking failed", "call_id", sess.CallID, "err", err)
		sess.CurrentStep = session.StepAskTime
		sess.Fields.StartsAtUTC = nil
		return e.persist(ctx, sess, now, Reply{Say: promptTryAgain})
	}
}

func (e *Engine) endCall(ctx context.Context, callID string) {
	if err := e.sessions.Reset(ctx, callID); err != nil {
		e.log.Warn("session reset failed", "call_id", callID, "err", err)
	}
}

func (e *Engine) persist(ctx context.Context, sess session.CallSession, now time.Time, r Reply) (Reply, error) {
	sess.UpdatedAt = now
	if err := e.sessions.Save(ctx, sess); err != nil {
		e.log.Error("session save failed", "call_id", sess.CallID, "err", err)
	}
	return r, nil
}

func hasInput(in TurnInput) bool {
	return strings.TrimSpace(in.Speech) != "" || strings.TrimSpace(in.Digits) != ""
}

func turnKind(in TurnInput) (kind, raw string) {
	switch {
	case strings.TrimSpace(in.Digits) != "":
		return "digits", in.Digits
	case strings.TrimSpace(in.Speech) != "":
		return "speech", in.Speech
	default:
		return "none", ""
	}
}
