package flow

import (
	"strings"
	"testing"
	"time"

	"bookline/internal/normalize"
	"bookline/internal/session"
)

func sessionAt(step session.Step, f session.Fields) session.CallSession {
	return session.CallSession{CallID: "CA-test", CurrentStep: step, Fields: f}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestTransition_AskName(t *testing.T) {
	out := Transition(sessionAt(session.StepAskName, session.Fields{}), Input{Name: "John Smith"}, time.UTC)
	if out.Next != session.StepConfirmName {
		t.Fatalf("expected confirm_name, got %s", out.Next)
	}
	if out.Fields.FullName != "John Smith" {
		t.Fatalf("name not captured: %+v", out.Fields)
	}
	if !strings.Contains(out.Say, "John Smith") {
		t.Fatalf("confirmation must echo the name, got %q", out.Say)
	}

	out = Transition(sessionAt(session.StepAskName, session.Fields{}), Input{}, time.UTC)
	if out.Next != session.StepAskName || !out.Missed {
		t.Fatalf("empty input must reprompt in place, got %+v", out)
	}
}

func TestTransition_ConfirmName(t *testing.T) {
	withName := session.Fields{FullName: "John Smith"}

	out := Transition(sessionAt(session.StepConfirmName, withName), Input{Verdict: normalize.Affirmative}, time.UTC)
	if out.Next != session.StepAskMobile {
		t.Fatalf("yes without mobile must ask mobile, got %s", out.Next)
	}

	withMobile := session.Fields{FullName: "John Smith", Mobile: "+12125550134"}
	out = Transition(sessionAt(session.StepConfirmName, withMobile), Input{Verdict: normalize.Affirmative}, time.UTC)
	if out.Next != session.StepAskTime {
		t.Fatalf("yes with known mobile must skip to time, got %s", out.Next)
	}

	out = Transition(sessionAt(session.StepConfirmName, withName), Input{Verdict: normalize.Negative}, time.UTC)
	if out.Next != session.StepAskName || out.Fields.FullName != "" {
		t.Fatalf("no must clear the name and re-ask, got %+v", out)
	}

	out = Transition(sessionAt(session.StepConfirmName, withName), Input{}, time.UTC)
	if out.Next != session.StepConfirmName || !out.Missed {
		t.Fatalf("ambiguous answer must reprompt, got %+v", out)
	}
}

func TestTransition_AskMobile(t *testing.T) {
	f := session.Fields{FullName: "John Smith"}

	out := Transition(sessionAt(session.StepAskMobile, f), Input{Phone: "+12125550134"}, time.UTC)
	if out.Next != session.StepAskTime || out.Fields.Mobile != "+12125550134" {
		t.Fatalf("valid phone must advance to time, got %+v", out)
	}

	out = Transition(sessionAt(session.StepAskMobile, f), Input{}, time.UTC)
	if out.Next != session.StepAskMobile || !out.Missed {
		t.Fatalf("invalid phone must reprompt, got %+v", out)
	}
}

func TestTransition_AskTime(t *testing.T) {
	f := session.Fields{FullName: "John Smith", Mobile: "+12125550134"}
	at := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	out := Transition(sessionAt(session.StepAskTime, f), Input{Time: at, InHours: true, Available: true}, time.UTC)
	if out.Next != session.StepAskDuration {
		t.Fatalf("valid available time must advance, got %s", out.Next)
	}
	if out.Fields.StartsAtUTC == nil || !out.Fields.StartsAtUTC.Equal(at) {
		t.Fatalf("time not captured: %+v", out.Fields)
	}

	out = Transition(sessionAt(session.StepAskTime, f), Input{TimeInPast: true}, time.UTC)
	if out.Next != session.StepAskTime || out.Say != promptPastTime {
		t.Fatalf("past time must reprompt with the past-time message, got %+v", out)
	}
	if out.Fields.StartsAtUTC != nil {
		t.Fatalf("past time must not be stored")
	}

	alt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	out = Transition(sessionAt(session.StepAskTime, f), Input{Time: at, InHours: true, Available: false, Alternatives: []time.Time{alt}}, time.UTC)
	if out.Next != session.StepAskTime {
		t.Fatalf("unavailable time must stay in ask_time, got %s", out.Next)
	}
	if out.Missed {
		t.Fatalf("an understood but unavailable time is not a miss")
	}
	if !strings.Contains(out.Say, formatSlot(alt, time.UTC)) {
		t.Fatalf("reply must offer the alternative, got %q", out.Say)
	}

	out = Transition(sessionAt(session.StepAskTime, f), Input{Time: at, InHours: false}, time.UTC)
	if out.Next != session.StepAskTime || !strings.Contains(out.Say, "opening hours") {
		t.Fatalf("out-of-hours time must explain and stay, got %+v", out)
	}
}

func TestTransition_AskDuration(t *testing.T) {
	f := session.Fields{
		FullName:    "John Smith",
		Mobile:      "+12125550134",
		StartsAtUTC: ptrTime(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)),
	}

	out := Transition(sessionAt(session.StepAskDuration, f), Input{DurationMin: 45}, time.UTC)
	if out.Next != session.StepConfirm || out.Fields.DurationMin != 45 {
		t.Fatalf("duration must advance to confirm, got %+v", out)
	}
	for _, want := range []string{"John Smith", "+12125550134", "45"} {
		if !strings.Contains(out.Say, want) {
			t.Fatalf("summary must contain %q, got %q", want, out.Say)
		}
	}

	out = Transition(sessionAt(session.StepAskDuration, f), Input{}, time.UTC)
	if out.Next != session.StepAskDuration || !out.Missed {
		t.Fatalf("unrecognized duration must reprompt, got %+v", out)
	}
}

func TestTransition_Confirm(t *testing.T) {
	full := session.Fields{
		FullName:    "John Smith",
		Mobile:      "+12125550134",
		StartsAtUTC: ptrTime(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)),
		DurationMin: 45,
	}

	out := Transition(sessionAt(session.StepConfirm, full), Input{Verdict: normalize.Affirmative}, time.UTC)
	if out.Next != session.StepBooked || !out.Book {
		t.Fatalf("yes with complete fields must book, got %+v", out)
	}

	out = Transition(sessionAt(session.StepConfirm, full), Input{Verdict: normalize.Negative}, time.UTC)
	if out.Next != session.StepAskTime || out.Fields.StartsAtUTC != nil {
		t.Fatalf("no must reopen the time question, got %+v", out)
	}
	if out.Fields.FullName != "John Smith" || out.Fields.Mobile != "+12125550134" {
		t.Fatalf("identity fields must survive a time change, got %+v", out.Fields)
	}

	out = Transition(sessionAt(session.StepConfirm, full), Input{}, time.UTC)
	if out.Next != session.StepConfirm || !out.Missed || out.Book {
		t.Fatalf("ambiguous confirmation must reprompt without booking, got %+v", out)
	}

	missingMobile := full
	missingMobile.Mobile = ""
	out = Transition(sessionAt(session.StepConfirm, missingMobile), Input{Verdict: normalize.Affirmative}, time.UTC)
	if out.Next != session.StepAskMobile || out.Book {
		t.Fatalf("booking must never fire with a missing field, got %+v", out)
	}
}

func TestTransition_ThirdMissGivesUp(t *testing.T) {
	s := sessionAt(session.StepAskName, session.Fields{})
	s.Misses = maxMisses - 1

	out := Transition(s, Input{}, time.UTC)
	if out.Next != session.StepReset {
		t.Fatalf("expected reset after repeated misses, got %s", out.Next)
	}
	if out.Say != promptGoodbyeReset {
		t.Fatalf("expected the goodbye message, got %q", out.Say)
	}
}

func TestTransition_InvalidStepResets(t *testing.T) {
	out := Transition(sessionAt(session.Step("bogus"), session.Fields{}), Input{}, time.UTC)
	if out.Next != session.StepReset {
		t.Fatalf("unknown step must end the call, got %s", out.Next)
	}
}
