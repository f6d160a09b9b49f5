package normalize

import (
	"context"
	"strings"
)

// Keypad menu for the duration step: 1, 2, 3 select a slot length, and
// typing the length itself also works.
var durationByKey = map[string]int{
	"1": 30, "2": 45, "3": 60,
	"30": 30, "45": 45, "60": 60,
}

const defaultDurationMin = 30

// Duration extracts an appointment length in minutes. Keypad input maps
// through the fixed menu; speech falls back to keyword detection and
// finally to the default length.
func (n *Normalizer) Duration(ctx context.Context, speech, digits string) (int, error) {
	return runFirst(ctx, n.budget, speech, []strategy[int]{
		{name: "dtmf", run: func(_ context.Context, _ string) (int, error) {
			return durationFromKey(digits)
		}},
		{name: "speech-keywords", run: func(_ context.Context, s string) (int, error) {
			return durationFromSpeech(s)
		}},
	})
}

func durationFromKey(digits string) (int, error) {
	d, ok := durationByKey[strings.TrimSpace(digits)]
	if !ok {
		return 0, ErrNoCandidate
	}
	return d, nil
}

func durationFromSpeech(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrNoCandidate
	}
	switch {
	case strings.Contains(s, "45") || strings.Contains(s, "forty"):
		return 45, nil
	case strings.Contains(s, "60") || strings.Contains(s, "sixty") || strings.Contains(s, "hour"):
		return 60, nil
	case strings.Contains(s, "30") || strings.Contains(s, "thirty") || strings.Contains(s, "half"):
		return 30, nil
	default:
		// Something was said but no length recognized; take the default
		// rather than stalling the conversation.
		return defaultDurationMin, nil
	}
}
