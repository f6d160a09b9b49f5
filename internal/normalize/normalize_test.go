package normalize

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testClock() time.Time {
	// A Monday morning, fixed for determinism.
	return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
}

func newTestNormalizer(opts ...Option) *Normalizer {
	opts = append([]Option{WithClock(testClock)}, opts...)
	return New("US", time.UTC, 500*time.Millisecond, opts...)
}

func TestName_Extraction(t *testing.T) {
	n := newTestNormalizer()
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "my name is John Smith", want: "John Smith"},
		{in: "yes, this is mary jane watson", want: "Mary Jane Watson"},
		{in: "i'm o'brien", want: "O'Brien"},
		{in: "this is mary smith-jones", want: "Mary Smith-Jones"},
		{in: "dis is Kofi", want: "Kofi"},
		{in: "um yes okay", wantErr: true},
		{in: "", wantErr: true},
		{in: "agent 007 here we go again now", wantErr: true},
		{in: "anna maria luisa de la cruz", wantErr: true}, // more than four words
	}
	for _, tc := range cases {
		got, err := n.Name(context.Background(), tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrNoCandidate) {
				t.Errorf("Name(%q) = %q, %v; want ErrNoCandidate", tc.in, got, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Name(%q) unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Name(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPhone_SpokenVariantsCanonicalize(t *testing.T) {
	n := newTestNormalizer()
	const want = "+12125550134"
	renderings := []string{
		"two one two five five five zero one three four",
		"to won too fife fife fife oh one tree for",
		"two one two, five five five... oh one three four",
		"my number is 212 555 0134",
		"two one two triple five zero one three four",
	}
	for _, in := range renderings {
		got, err := n.Phone(context.Background(), in, "")
		if err != nil {
			t.Errorf("Phone(%q) unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Phone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhone_KeypadPreferredOverSpeech(t *testing.T) {
	n := newTestNormalizer()
	got, err := n.Phone(context.Background(), "two one two five five five zero one nine nine", "2125550134")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != "+12125550134" {
		t.Fatalf("expected keypad digits to win, got %q", got)
	}
}

func TestPhone_ElevenDigitCountryCode(t *testing.T) {
	n := newTestNormalizer()
	got, err := n.Phone(context.Background(), "", "12125550134")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != "+12125550134" {
		t.Fatalf("got %q", got)
	}
}

func TestPhone_RejectsWrongLength(t *testing.T) {
	n := newTestNormalizer()
	for _, in := range []string{"12345", "123456789012", ""} {
		if _, err := n.Phone(context.Background(), "", in); !errors.Is(err, ErrNoCandidate) {
			t.Errorf("Phone(digits=%q) expected ErrNoCandidate, got %v", in, err)
		}
	}
}

func TestTime_ParsesFuture(t *testing.T) {
	n := newTestNormalizer()
	got, err := n.Time(context.Background(), "tomorrow at 3pm")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTime_RejectsPast(t *testing.T) {
	n := newTestNormalizer()
	_, err := n.Time(context.Background(), "today at 9am")
	if !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected ErrPastTime, got %v", err)
	}
}

func TestTime_NoCandidateOnNoise(t *testing.T) {
	n := newTestNormalizer()
	_, err := n.Time(context.Background(), "uh whenever works for you")
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}

type slowResolver struct{}

func (slowResolver) ResolveTime(ctx context.Context, text string, ref time.Time) (time.Time, error) {
	select {
	case <-time.After(10 * time.Second):
		return ref.Add(time.Hour), nil
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
}

func TestTime_SlowFallbackIsBounded(t *testing.T) {
	n := New("US", time.UTC, 50*time.Millisecond, WithClock(testClock), WithTimeResolver(slowResolver{}))

	start := time.Now()
	_, err := n.Time(context.Background(), "something unparseable")
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate after guard timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("slow strategy was not bounded, took %v", elapsed)
	}
}

type fixedResolver struct{ at time.Time }

func (r fixedResolver) ResolveTime(ctx context.Context, text string, ref time.Time) (time.Time, error) {
	return r.at, nil
}

func TestTime_FallbackResolverUsed(t *testing.T) {
	want := testClock().Add(48 * time.Hour)
	n := newTestNormalizer(WithTimeResolver(fixedResolver{at: want}))

	got, err := n.Time(context.Background(), "the usual slot please")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDuration(t *testing.T) {
	n := newTestNormalizer()
	cases := []struct {
		speech, digits string
		want           int
		wantErr        bool
	}{
		{digits: "1", want: 30},
		{digits: "2", want: 45},
		{digits: "3", want: 60},
		{digits: "45", want: 45},
		{speech: "forty five minutes please", want: 45},
		{speech: "an hour", want: 60},
		{speech: "half an hour", want: 30},
		{speech: "the usual", want: 30}, // speech present, keyword miss, default
		{digits: "9", speech: "", wantErr: true},
		{wantErr: true},
	}
	for _, tc := range cases {
		got, err := n.Duration(context.Background(), tc.speech, tc.digits)
		if tc.wantErr {
			if !errors.Is(err, ErrNoCandidate) {
				t.Errorf("Duration(%q,%q) expected ErrNoCandidate, got %v", tc.speech, tc.digits, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Duration(%q,%q) = %d, %v; want %d", tc.speech, tc.digits, got, err, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Verdict
	}{
		{"yes", Affirmative},
		{"yeah that's right", Affirmative},
		{"perfect, thank you", Affirmative},
		{"no", Negative},
		{"nope, change it", Negative},
		{"no, that's wrong", Negative},
		{"what was that", Ambiguous},
		{"", Ambiguous},
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClassifyInput_KeypadWins(t *testing.T) {
	if got := ClassifyInput("no no no", "1"); got != Affirmative {
		t.Fatalf("expected keypad 1 to read affirmative, got %v", got)
	}
	if got := ClassifyInput("yes", "2"); got != Negative {
		t.Fatalf("expected keypad 2 to read negative, got %v", got)
	}
}

func TestCanonicalPhone(t *testing.T) {
	n := newTestNormalizer()
	for _, in := range []string{"+1 212-555-0134", "(212) 555-0134", "+12125550134"} {
		got, ok := n.CanonicalPhone(in)
		if !ok || got != "+12125550134" {
			t.Errorf("CanonicalPhone(%q) = %q ok=%v, want +12125550134 true", in, got, ok)
		}
	}
	for _, in := range []string{"anonymous", ""} {
		if _, ok := n.CanonicalPhone(in); ok {
			t.Errorf("CanonicalPhone(%q) expected ok=false", in)
		}
	}
}
