package profile

import (
	"context"
	"testing"
	"time"
)

func TestDayPart(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{8, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{21, "evening"},
	}
	for _, tc := range cases {
		at := time.Date(2026, 3, 9, tc.hour, 0, 0, 0, time.UTC)
		if got := DayPart(at); got != tc.want {
			t.Errorf("DayPart(%02d:00) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestRecordBooking(t *testing.T) {
	p := CallerProfile{Mobile: "+15551234567", FullName: "John Smith", CallCount: 2}
	at := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	p.RecordBooking(at, 45, "morning")
	p.RecordBooking(at.Add(24*time.Hour), 30, "morning")

	if p.AppointmentCount != 2 {
		t.Fatalf("expected 2 appointments, got %d", p.AppointmentCount)
	}
	if !p.IsReturning {
		t.Fatalf("expected returning flag set")
	}
	if p.PreferredDuration != 30 {
		t.Fatalf("expected latest duration preferred, got %d", p.PreferredDuration)
	}
	if len(p.PreferredTimes) != 1 || p.PreferredTimes[0] != "morning" {
		t.Fatalf("expected deduplicated day parts, got %v", p.PreferredTimes)
	}
	if p.LastAppointmentAt == nil || !p.LastAppointmentAt.Equal(at.Add(24*time.Hour)) {
		t.Fatalf("expected last appointment updated, got %v", p.LastAppointmentAt)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if _, found, _ := m.Get(ctx, "+15550000000"); found {
		t.Fatalf("expected miss for unknown mobile")
	}
	if err := m.Save(ctx, CallerProfile{}); err == nil {
		t.Fatalf("expected error saving profile without mobile")
	}

	p := CallerProfile{Mobile: "+15551234567", FullName: "Jane Doe", IsReturning: true}
	if err := m.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := m.Get(ctx, p.Mobile)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.FullName != "Jane Doe" || !got.IsReturning {
		t.Fatalf("unexpected profile %+v", got)
	}
}
