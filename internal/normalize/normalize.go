// Package normalize turns noisy speech transcripts and keypad digits into
// typed field values, one step of the booking conversation at a time.
//
// Extraction is organized as ordered lists of pure strategy functions
// combined by a single first-success-wins runner. Every strategy call is
// bounded by the timeout guard; a guard timeout counts as "no candidate",
// never an error, so a slow path can only cost its own budget.
package normalize

import (
	"context"
	"errors"
	"time"

	"bookline/pkg/utils"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	// ErrNoCandidate means no strategy produced a value; the caller
	// reprompts in the same step.
	ErrNoCandidate = errors.New("normalize: no candidate")

	// ErrPastTime means a time was understood but lies in the past.
	ErrPastTime = errors.New("normalize: time is in the past")
)

// TimeResolver is an optional fallback for natural-language times the
// rule-based parser cannot handle. Implementations may call out to an LLM;
// the interface keeps that strictly optional.
type TimeResolver interface {
	ResolveTime(ctx context.Context, text string, ref time.Time) (time.Time, error)
}

// Normalizer extracts name, phone, time and duration candidates.
type Normalizer struct {
	region string
	loc    *time.Location
	budget time.Duration

	parser *when.Parser
	llm    TimeResolver
	now    func() time.Time
}

type Option func(*Normalizer)

// WithClock injects a deterministic clock for tests.
func WithClock(fn func() time.Time) Option {
	return func(n *Normalizer) { n.now = fn }
}

// WithTimeResolver enables the fallback time strategy.
func WithTimeResolver(r TimeResolver) Option {
	return func(n *Normalizer) { n.llm = r }
}

// New builds a Normalizer for one numbering-plan region and business
// timezone. strategyBudget bounds each individual strategy call.
func New(region string, loc *time.Location, strategyBudget time.Duration, opts ...Option) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if strategyBudget <= 0 {
		strategyBudget = 800 * time.Millisecond
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	n := &Normalizer{
		region: region,
		loc:    loc,
		budget: strategyBudget,
		parser: w,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// strategy is one extraction attempt. Strategies must be side-effect free
// and honor ctx so the guard can abandon them.
type strategy[T any] struct {
	name string
	run  func(ctx context.Context, input string) (T, error)
}

// runFirst applies strategies in order and returns the first success.
// ErrNoCandidate and guard timeouts move on to the next strategy; any
// other error (a validation rejection such as ErrPastTime) stops the run.
func runFirst[T any](ctx context.Context, budget time.Duration, input string, strategies []strategy[T]) (T, error) {
	var zero T
	for _, s := range strategies {
		v, err := utils.RunWithTimeout(ctx, budget, func(c context.Context) (T, error) {
			return s.run(c, input)
		})
		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, ErrNoCandidate) || errors.Is(err, utils.ErrTimedOut):
			continue
		default:
			return zero, err
		}
	}
	return zero, ErrNoCandidate
}
