package normalize

import (
	"context"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Spoken digit words, including regional pronunciation variants heard in
// transcripts ("tree" for three, "fife" for five, radio-style "niner").
var digitWords = map[string]string{
	"zero": "0", "oh": "0", "o": "0", "nought": "0",
	"one": "1", "won": "1",
	"two": "2", "to": "2", "too": "2",
	"three": "3", "tree": "3",
	"four": "4", "for": "4", "fore": "4",
	"five": "5", "fife": "5",
	"six": "6",
	"seven": "7",
	"eight": "8", "ate": "8",
	"nine": "9", "niner": "9",
}

// Phone extracts one canonical E.164 number. Keypad digits, when present,
// are always preferred over speech; speech is tried first as literal
// digits and then as spoken digit words.
func (n *Normalizer) Phone(ctx context.Context, speech, digits string) (string, error) {
	return runFirst(ctx, n.budget, speech, []strategy[string]{
		{name: "dtmf", run: func(_ context.Context, _ string) (string, error) {
			return n.phoneFromDigits(digits)
		}},
		{name: "speech-literal", run: func(_ context.Context, s string) (string, error) {
			return n.phoneFromDigits(s)
		}},
		{name: "digit-words", run: func(_ context.Context, s string) (string, error) {
			return n.phoneFromDigits(spokenToDigits(s))
		}},
	})
}

// CanonicalPhone normalizes an already well-formed number, such as the
// caller ID delivered by the provider, to E.164. It is lenient about
// formatting but does not attempt speech recovery.
func (n *Normalizer) CanonicalPhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// phoneFromDigits validates a digit string against the numbering plan.
// Only 10-digit national or 11-digit country-code-prefixed inputs are
// accepted; everything else is no candidate.
func (n *Normalizer) phoneFromDigits(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	ds := b.String()

	var raw string
	switch len(ds) {
	case 10:
		raw = ds
	case 11:
		raw = "+" + ds
	default:
		return "", ErrNoCandidate
	}

	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", ErrNoCandidate
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// spokenToDigits maps spoken digit words to digits. Unknown words are
// skipped; "double"/"triple" repeat the following digit.
func spokenToDigits(s string) string {
	var b strings.Builder
	repeat := 1
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ",.!?-")
		switch tok {
		case "double":
			repeat = 2
			continue
		case "triple":
			repeat = 3
			continue
		}

		d, ok := digitWords[tok]
		if !ok && isAllDigits(tok) {
			d, ok = tok, true
		}
		if ok {
			for i := 0; i < repeat; i++ {
				b.WriteString(d)
			}
		}
		repeat = 1
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
