package normalize

import (
	"context"
	"strings"
	"unicode"
)

// Introduction phrases are stripped before tokenizing. Ordered longest
// first so "my name is" wins over "name is". The tail entries cover
// common accent renderings seen in transcripts.
var introPhrases = []string{
	"yes my name is",
	"my name is",
	"ma name is",
	"the name is",
	"dis is",
	"dees is",
	"name is",
	"this is",
	"i am",
	"i'm",
	"it is",
	"it's",
	"call me",
	"speaking",
}

// Acknowledgement and filler words are never part of a name.
var nameDenyList = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "no": {}, "nope": {},
	"ok": {}, "okay": {}, "hello": {}, "hi": {}, "hey": {}, "um": {},
	"uh": {}, "hmm": {}, "sure": {}, "right": {}, "correct": {},
	"wrong": {}, "thanks": {}, "thank": {}, "you": {}, "bye": {},
	"goodbye": {}, "what": {}, "sorry": {}, "pardon": {}, "huh": {},
	"please": {}, "speaking": {},
}

const maxNameWords = 4

// Name extracts a 1-4 word caller name from a speech transcript.
func (n *Normalizer) Name(ctx context.Context, speech string) (string, error) {
	return runFirst(ctx, n.budget, speech, []strategy[string]{
		{name: "plain", run: extractName},
	})
}

func extractName(_ context.Context, input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrNoCandidate
	}
	s = stripIntro(s)

	var words []string
	for _, tok := range strings.Fields(s) {
		w := strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		if w == "" {
			continue
		}
		if _, denied := nameDenyList[strings.ToLower(w)]; denied {
			continue
		}
		if !alphabeticMajority(w) {
			return "", ErrNoCandidate
		}
		words = append(words, capitalize(w))
	}

	if len(words) == 0 || len(words) > maxNameWords {
		return "", ErrNoCandidate
	}
	return strings.Join(words, " "), nil
}

// stripIntro removes a leading introduction phrase, repeatedly, so
// "yes, this is John" reduces to "John".
func stripIntro(s string) string {
	for {
		trimmed := strings.TrimLeft(s, " ,.")
		lower := strings.ToLower(trimmed)
		matched := false
		for _, phrase := range introPhrases {
			if strings.HasPrefix(lower, phrase+" ") || lower == phrase {
				trimmed = strings.TrimSpace(trimmed[len(phrase):])
				matched = true
				break
			}
		}
		if !matched {
			return trimmed
		}
		s = trimmed
	}
}

func alphabeticMajority(w string) bool {
	letters, total := 0, 0
	for _, r := range w {
		total++
		if unicode.IsLetter(r) || r == '\'' {
			letters++
		}
	}
	return total > 0 && letters*2 > total
}

// capitalize title-cases a name token, restarting after apostrophes and
// hyphens so "o'brien" and "smith-jones" read correctly.
func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	upperNext := true
	for i, r := range runes {
		if upperNext && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			upperNext = false
		}
		if r == '\'' || r == '-' {
			upperNext = true
		}
	}
	return string(runes)
}
