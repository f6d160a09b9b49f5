package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseVoiceTurn(t *testing.T) {
	form := url.Values{
		"CallSid":      {"CA123"},
		"AccountSid":   {"AC456"},
		"From":         {" +12125550134 "},
		"To":           {"+18005550100"},
		"CallStatus":   {"in-progress"},
		"Direction":    {"inbound"},
		"SpeechResult": {"my name is John Smith"},
		"Confidence":   {"0.91"},
		"Digits":       {"1"},
	}
	req := httptest.NewRequest("POST", "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := ParseVoiceTurn(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.CallSid != "CA123" || f.From != "+12125550134" || f.Digits != "1" {
		t.Fatalf("unexpected form %+v", f)
	}
	if f.SpeechResult != "my name is John Smith" {
		t.Fatalf("unexpected speech %q", f.SpeechResult)
	}

	in := f.TurnInput()
	if in.CallID != "CA123" || in.Speech != "my name is John Smith" || in.Digits != "1" {
		t.Fatalf("unexpected turn input %+v", in)
	}
}

func TestSpeechDiscardsLowConfidence(t *testing.T) {
	cases := []struct {
		confidence string
		want       string
	}{
		{"0.91", "hello"},
		{"0.39", ""},
		{"0.40", "hello"},
		{"", "hello"},
		{"garbage", "hello"},
	}
	for _, tc := range cases {
		f := VoiceTurnForm{SpeechResult: "hello", Confidence: tc.confidence}
		if got := f.Speech(); got != tc.want {
			t.Errorf("confidence %q: got %q, want %q", tc.confidence, got, tc.want)
		}
	}
}
