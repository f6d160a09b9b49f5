// Package flow is the finite-state conversation controller. It decides,
// turn by turn, what to ask, accept, or reject, and when to hand the
// collected fields to the booking orchestrator.
package flow

import (
	"time"

	"bookline/internal/normalize"
	"bookline/internal/session"
)

// maxMisses bounds consecutive unrecognized turns in one step before the
// call is ended politely instead of looping forever.
const maxMisses = 3

// Input is the normalized view of one turn, already resolved against the
// advisor where the step requires it. Transition itself performs no I/O.
type Input struct {
	Verdict normalize.Verdict

	Name        string
	Phone       string
	Time        time.Time // zero when no time was understood
	TimeInPast  bool
	InHours     bool
	Available   bool
	DurationMin int

	// Alternatives are open slots to offer when the requested time is
	// out of hours or unavailable.
	Alternatives []time.Time
}

// Outcome is the pure result of one transition: next step, mutated
// fields, what to say, and whether the booking effect fires.
type Outcome struct {
	Next   session.Step
	Fields session.Fields
	Say    string

	// Book is set on the Confirm -> Booked edge; the engine invokes the
	// orchestrator and maps its result onto the final reply.
	Book bool

	// Missed marks an unrecognized turn; the engine counts these.
	Missed bool
}

// Transition computes the next state for one turn. It is a pure function
// of (current step, normalized input, session); no transition bypasses
// its own entry condition.
func Transition(s session.CallSession, in Input, loc *time.Location) Outcome {
	f := s.Fields

	switch s.CurrentStep {
	case session.StepAskName:
		if in.Name == "" {
			return miss(s, promptNameRetry)
		}
		f.FullName = in.Name
		return Outcome{Next: session.StepConfirmName, Fields: f, Say: promptConfirmName(in.Name)}

	case session.StepConfirmName:
		switch in.Verdict {
		case normalize.Affirmative:
			if f.Mobile != "" {
				return Outcome{Next: session.StepAskTime, Fields: f, Say: promptAskTime(f.FullName)}
			}
			return Outcome{Next: session.StepAskMobile, Fields: f, Say: promptAskMobile}
		case normalize.Negative:
			f.FullName = ""
			return Outcome{Next: session.StepAskName, Fields: f, Say: promptNameAgain}
		default:
			return miss(s, promptConfirmName(f.FullName))
		}

	case session.StepAskMobile:
		if in.Phone == "" {
			return miss(s, promptMobileRetry)
		}
		f.Mobile = in.Phone
		return Outcome{Next: session.StepAskTime, Fields: f, Say: promptAskTime(f.FullName)}

	case session.StepAskTime:
		if in.Time.IsZero() {
			if in.TimeInPast {
				return miss(s, promptPastTime)
			}
			return miss(s, promptTimeRetry)
		}
		if !in.InHours {
			return Outcome{Next: session.StepAskTime, Fields: f, Say: promptOutOfHours(in.Alternatives, loc)}
		}
		if !in.Available {
			return Outcome{Next: session.StepAskTime, Fields: f, Say: promptUnavailable(in.Time, in.Alternatives, loc)}
		}
		at := in.Time
		f.StartsAtUTC = &at
		return Outcome{Next: session.StepAskDuration, Fields: f, Say: promptAskDuration}

	case session.StepAskDuration:
		if in.DurationMin == 0 {
			return miss(s, promptDurationRetry)
		}
		f.DurationMin = in.DurationMin
		return Outcome{Next: session.StepConfirm, Fields: f, Say: promptSummary(f, loc)}

	case session.StepConfirm:
		switch in.Verdict {
		case normalize.Affirmative:
			if step, ok := missingFieldStep(f); ok {
				return Outcome{Next: step, Fields: f, Say: promptForStep(step, f)}
			}
			return Outcome{Next: session.StepBooked, Fields: f, Book: true}
		case normalize.Negative:
			f.StartsAtUTC = nil
			return Outcome{Next: session.StepAskTime, Fields: f, Say: promptTimeAgain}
		default:
			return miss(s, promptSummary(f, loc))
		}
	}

	// A session outside the state set cannot progress; end the call.
	return Outcome{Next: session.StepReset, Fields: f, Say: promptGoodbyeReset}
}

// miss keeps the caller in the same step with a step-specific reprompt,
// giving up after maxMisses consecutive failures.
func miss(s session.CallSession, say string) Outcome {
	if s.Misses+1 >= maxMisses {
		return Outcome{Next: session.StepReset, Fields: s.Fields, Say: promptGoodbyeReset}
	}
	return Outcome{Next: s.CurrentStep, Fields: s.Fields, Say: say, Missed: true}
}

// missingFieldStep routes an affirmative Confirm back to the first field
// that somehow went missing.
func missingFieldStep(f session.Fields) (session.Step, bool) {
	switch {
	case f.FullName == "":
		return session.StepAskName, true
	case f.Mobile == "":
		return session.StepAskMobile, true
	case f.StartsAtUTC == nil:
		return session.StepAskTime, true
	case f.DurationMin == 0:
		return session.StepAskDuration, true
	default:
		return "", false
	}
}
