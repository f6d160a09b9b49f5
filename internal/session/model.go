package session

import "time"

// Step identifies where a call currently sits in the booking conversation.
//
// The set is closed; CallSession.CurrentStep must always be one of these.
type Step string

const (
	StepAskName     Step = "ask_name"
	StepConfirmName Step = "confirm_name"
	StepAskMobile   Step = "ask_mobile"
	StepAskTime     Step = "ask_time"
	StepAskDuration Step = "ask_duration"
	StepConfirm     Step = "confirm"
	StepBooked      Step = "booked"
	StepReset       Step = "reset"
)

// Valid reports whether s is a member of the closed step set.
func (s Step) Valid() bool {
	switch s {
	case StepAskName, StepConfirmName, StepAskMobile, StepAskTime,
		StepAskDuration, StepConfirm, StepBooked, StepReset:
		return true
	default:
		return false
	}
}

// Terminal reports whether the conversation is over at this step.
func (s Step) Terminal() bool {
	return s == StepBooked || s == StepReset
}

// Fields are the typed values collected across turns.
// Datetimes serialize as RFC 3339 so sessions round-trip across processes.
type Fields struct {
	FullName    string     `json:"full_name,omitempty"`
	Mobile      string     `json:"mobile,omitempty"`
	StartsAtUTC *time.Time `json:"starts_at_utc,omitempty"`
	DurationMin int        `json:"duration_min,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

const (
	maxAuditEntries = 20
	maxAuditRawLen  = 140
)

// AuditEntry records one normalization attempt for a turn.
// Raw input is truncated; the trail is bounded to maxAuditEntries.
type AuditEntry struct {
	At        time.Time `json:"at"`
	Step      Step      `json:"step"`
	InputKind string    `json:"input_kind"` // "speech", "digits" or "none"
	Raw       string    `json:"raw,omitempty"`
	Extracted string    `json:"extracted,omitempty"`
}

// CallSession is the per-call conversational state.
//
// Ownership: one session belongs to exactly one call_id. It is created on
// the first webhook turn, mutated every turn, and deleted on terminal
// success or left to expire via the store TTL.
type CallSession struct {
	CallID      string       `json:"call_id"`
	CurrentStep Step         `json:"current_step"`
	Fields      Fields       `json:"fields"`
	ProfileRef  string       `json:"profile_ref,omitempty"`
	Audit       []AuditEntry `json:"audit,omitempty"`

	// Misses counts consecutive unrecognized inputs in the current step.
	// It resets on every successful transition.
	Misses int `json:"misses,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a fresh session at the conversation entry step.
func New(callID string) CallSession {
	return CallSession{
		CallID:      callID,
		CurrentStep: StepAskName,
	}
}

// RecordInput appends a bounded audit entry for this turn.
func (s *CallSession) RecordInput(at time.Time, kind, raw, extracted string) {
	if len(raw) > maxAuditRawLen {
		raw = raw[:maxAuditRawLen]
	}
	s.Audit = append(s.Audit, AuditEntry{
		At:        at,
		Step:      s.CurrentStep,
		InputKind: kind,
		Raw:       raw,
		Extracted: extracted,
	})
	if len(s.Audit) > maxAuditEntries {
		s.Audit = s.Audit[len(s.Audit)-maxAuditEntries:]
	}
}
