package normalize

import "strings"

// Verdict classifies a confirmation response. The single closed
// classifier is shared by every confirmation step.
type Verdict int

const (
	Ambiguous Verdict = iota
	Affirmative
	Negative
)

func (v Verdict) String() string {
	switch v {
	case Affirmative:
		return "affirmative"
	case Negative:
		return "negative"
	default:
		return "ambiguous"
	}
}

var affirmativeWords = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "ya": {}, "aye": {},
	"correct": {}, "right": {}, "sure": {}, "ok": {}, "okay": {},
	"confirm": {}, "confirmed": {}, "affirmative": {}, "absolutely": {},
	"definitely": {}, "exactly": {}, "perfect": {}, "good": {},
}

var negativeWords = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {}, "wrong": {}, "incorrect": {},
	"negative": {}, "change": {}, "cancel": {}, "different": {},
	"not": {}, "don't": {}, "dont": {},
}

// Classify maps a transcript to a confirmation verdict. Negation
// dominates: "no, that's wrong" contains "right" but must read negative.
func Classify(s string) Verdict {
	neg, aff := false, false
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ",.!?")
		if _, ok := negativeWords[tok]; ok {
			neg = true
		}
		if _, ok := affirmativeWords[tok]; ok {
			aff = true
		}
	}
	switch {
	case neg:
		return Negative
	case aff:
		return Affirmative
	default:
		return Ambiguous
	}
}

// ClassifyInput prefers keypad confirmation (1 yes, 2 no) over speech.
func ClassifyInput(speech, digits string) Verdict {
	switch strings.TrimSpace(digits) {
	case "1":
		return Affirmative
	case "2":
		return Negative
	}
	return Classify(speech)
}
