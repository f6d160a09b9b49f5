package flow

import (
	"fmt"
	"strings"
	"time"

	"bookline/internal/session"
)

// Static prompts. Anything caller-derived goes through the prompt
// builders below so tests can assert on exact phrasing.
const (
	promptGreeting      = "Thanks for calling! I can help you book an appointment. First, what's your name?"
	promptNameRetry     = "Sorry, I didn't catch your name. Could you say it again, or spell it for me?"
	promptNameAgain     = "No problem, let's try again. What's your name?"
	promptAskMobile     = "Great. What's the best mobile number to reach you? You can say it or enter it on the keypad."
	promptMobileRetry   = "I didn't get a valid phone number. Please say all ten digits, or type them on your keypad."
	promptTimeRetry     = "Sorry, I didn't understand that time. You can say something like, tomorrow at 3 PM."
	promptTimeAgain     = "Okay, let's pick a different time. What day and time works for you?"
	promptPastTime      = "That time has already passed. What future day and time would you like?"
	promptAskDuration   = "How long do you need? Say 30, 45, or 60 minutes, or press 1, 2, or 3."
	promptDurationRetry = "Sorry, I didn't get that. For 30 minutes press 1, for 45 press 2, or for 60 press 3."
	promptGoodbyeReset  = "I'm sorry, I'm having trouble understanding. Please call back when you're ready. Goodbye!"
	promptTryAgain      = "Something went wrong on our end saving that appointment. Let's try once more. What day and time would you like?"
	promptFallback      = "Sorry, something went wrong. Please call back in a moment. Goodbye!"
)

func promptConfirmName(name string) string {
	return fmt.Sprintf("I heard %s. Is that right? Say yes or press 1, or say no or press 2.", name)
}

func promptAskTime(name string) string {
	if name == "" {
		return "What day and time would you like to come in?"
	}
	return fmt.Sprintf("Thanks, %s. What day and time would you like to come in?", name)
}

func promptWelcomeBack(name string) string {
	first := name
	if i := strings.IndexByte(name, ' '); i > 0 {
		first = name[:i]
	}
	return fmt.Sprintf("Welcome back, %s! What day and time would you like to book?", first)
}

func promptOutOfHours(alts []time.Time, loc *time.Location) string {
	msg := "That time is outside our opening hours."
	return msg + alternativesSuffix(alts, loc)
}

func promptUnavailable(at time.Time, alts []time.Time, loc *time.Location) string {
	msg := fmt.Sprintf("Sorry, %s is already taken.", formatSlot(at, loc))
	return msg + alternativesSuffix(alts, loc)
}

func promptSlotTaken(alts []time.Time, loc *time.Location) string {
	msg := "I'm sorry, that time was just booked by someone else."
	return msg + alternativesSuffix(alts, loc)
}

func promptSummary(f session.Fields, loc *time.Location) string {
	when := "the requested time"
	if f.StartsAtUTC != nil {
		when = formatSlot(*f.StartsAtUTC, loc)
	}
	return fmt.Sprintf("Let me confirm: %s, at %s, for %s, %d minutes. Shall I book it? Say yes or press 1, or say no or press 2.",
		f.FullName, f.Mobile, when, f.DurationMin)
}

func promptBooked(f session.Fields, loc *time.Location) string {
	when := "your requested time"
	if f.StartsAtUTC != nil {
		when = formatSlot(*f.StartsAtUTC, loc)
	}
	return fmt.Sprintf("You're all set, %s! I've booked %d minutes for you on %s. See you then. Goodbye!",
		f.FullName, f.DurationMin, when)
}

// promptForStep reprompts for whichever field an affirmative confirmation
// turned out to be missing.
func promptForStep(step session.Step, f session.Fields) string {
	switch step {
	case session.StepAskName:
		return "One more thing, I still need your name. What is it?"
	case session.StepAskMobile:
		return promptAskMobile
	case session.StepAskTime:
		return promptAskTime(f.FullName)
	case session.StepAskDuration:
		return promptAskDuration
	default:
		return promptGreeting
	}
}

func alternativesSuffix(alts []time.Time, loc *time.Location) string {
	if len(alts) == 0 {
		return " What other day and time works for you?"
	}
	parts := make([]string, 0, len(alts))
	for _, t := range alts {
		parts = append(parts, formatSlot(t, loc))
	}
	return " I could do " + joinSpoken(parts) + ". Would one of those work, or another time?"
}

// formatSlot renders a slot the way a person would say it.
func formatSlot(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, January 2 at 3:04 PM")
}

func joinSpoken(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " or " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
	}
}
