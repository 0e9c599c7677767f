package clock_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/clock"
)

func TestWeekdaySet_HasAndNormalize(t *testing.T) {
	s := clock.Monday | clock.Wednesday
	if !s.Has(time.Monday) || !s.Has(time.Wednesday) {
		t.Fatal("expected Monday and Wednesday to be set")
	}
	if s.Has(time.Tuesday) {
		t.Fatal("expected Tuesday to be unset")
	}
	if s.Normalize() != s {
		t.Fatal("normalize should not change a non-empty mask")
	}
}

func TestWeekdaySet_Names(t *testing.T) {
	s := clock.Sunday | clock.Saturday
	names := s.Names()
	if len(names) != 2 || names[0] != "sunday" || names[1] != "saturday" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestTimeOfDay_OnDateAndEqual(t *testing.T) {
	at := clock.TimeOfDay{Hour: 18, Minute: 40, Second: 5}
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	combined := at.OnDate(d)

	if combined.Year() != 2024 || combined.Month() != time.March || combined.Day() != 15 {
		t.Fatalf("expected date preserved, got %v", combined)
	}
	if !at.Equal(combined) {
		t.Fatal("expected the combined time to equal the time-of-day anchor")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := clock.ParseTimeOfDay("18:40:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := clock.TimeOfDay{Hour: 18, Minute: 40, Second: 5}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimeOfDay_RejectsOutOfRange(t *testing.T) {
	if _, err := clock.ParseTimeOfDay("25:00:00"); err == nil {
		t.Fatal("expected an error for an out-of-range hour")
	}
}

func TestInterval_Duration(t *testing.T) {
	iv := clock.Interval{Weeks: 1, Days: 1, Hours: 1, Minutes: 1, Seconds: 1}
	want := 7*24*time.Hour + 24*time.Hour + time.Hour + time.Minute + time.Second
	if got := iv.Duration(); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestInterval_IsZero(t *testing.T) {
	var iv clock.Interval
	if !iv.IsZero() {
		t.Fatal("expected zero-value Interval to report IsZero")
	}
	iv.Seconds = 1
	if iv.IsZero() {
		t.Fatal("expected non-zero Interval not to report IsZero")
	}
}
