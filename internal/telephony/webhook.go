package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"bookline/internal/flow"
)

// VoiceTurnForm captures the subset of voice webhook fields one
// conversation turn needs. Twilio sends application/x-www-form-urlencoded
// by default. No business logic here; the flow engine decides everything.
type VoiceTurnForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	CallStatus   string
	Direction    string
	SpeechResult string
	Confidence   string
	Digits       string
}

func ParseVoiceTurn(r *http.Request) (VoiceTurnForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceTurnForm{}, err
	}
	return VoiceTurnForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         strings.TrimSpace(r.PostFormValue("From")),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		CallStatus:   r.PostFormValue("CallStatus"),
		Direction:    r.PostFormValue("Direction"),
		SpeechResult: r.PostFormValue("SpeechResult"),
		Confidence:   r.PostFormValue("Confidence"),
		Digits:       r.PostFormValue("Digits"),
	}, nil
}

// minConfidence below which a transcript is treated as silence; the
// engine then reprompts instead of misreading a garbled result.
const minConfidence = 0.40

// Speech returns the transcript, discarding low-confidence results.
func (f VoiceTurnForm) Speech() string {
	if f.Confidence != "" {
		if c, err := strconv.ParseFloat(f.Confidence, 64); err == nil && c < minConfidence {
			return ""
		}
	}
	return f.SpeechResult
}

func (f VoiceTurnForm) TurnInput() flow.TurnInput {
	return flow.TurnInput{
		CallID: f.CallSid,
		From:   f.From,
		Speech: f.Speech(),
		Digits: f.Digits,
	}
}
