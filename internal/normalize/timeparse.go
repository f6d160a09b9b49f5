package normalize

import (
	"context"
	"strings"
	"time"
)

// Time extracts a future appointment time from a speech transcript.
//
// The rule-based parser runs first; the optional LLM resolver, when
// configured, is strictly a fallback and never the mandatory path. A time
// that parses but lies in the past is rejected with ErrPastTime and stops
// the chain: the caller misspoke, a different strategy will not fix it.
// Business-hours and availability checks belong downstream.
func (n *Normalizer) Time(ctx context.Context, speech string) (time.Time, error) {
	strategies := []strategy[time.Time]{
		{name: "natural-language", run: n.timeFromRules},
	}
	if n.llm != nil {
		strategies = append(strategies, strategy[time.Time]{name: "llm", run: n.timeFromResolver})
	}
	return runFirst(ctx, n.budget, speech, strategies)
}

func (n *Normalizer) timeFromRules(_ context.Context, input string) (time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return time.Time{}, ErrNoCandidate
	}
	ref := n.now().In(n.loc)
	r, err := n.parser.Parse(input, ref)
	if err != nil || r == nil {
		return time.Time{}, ErrNoCandidate
	}
	return n.requireFuture(r.Time)
}

func (n *Normalizer) timeFromResolver(ctx context.Context, input string) (time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return time.Time{}, ErrNoCandidate
	}
	t, err := n.llm.ResolveTime(ctx, input, n.now().In(n.loc))
	if err != nil {
		return time.Time{}, ErrNoCandidate
	}
	return n.requireFuture(t)
}

func (n *Normalizer) requireFuture(t time.Time) (time.Time, error) {
	if !t.After(n.now()) {
		return time.Time{}, ErrPastTime
	}
	return t.UTC(), nil
}
