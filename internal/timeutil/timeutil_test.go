// ABOUTME: Tests for smart-view time cutoffs
// ABOUTME: Verifies midnight and week boundaries in local time

package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 14, 15, 9, 26, 535, time.Local)
	got := StartOfDay(in)

	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestStartOfToday(t *testing.T) {
	got := StartOfToday()
	now := time.Now()

	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("expected midnight, got %v", got)
	}
	if got.Year() != now.Year() || got.YearDay() != now.YearDay() {
		t.Errorf("expected today, got %v", got)
	}
	if got.After(now) {
		t.Errorf("start of today %v is after now %v", got, now)
	}
}

func TestStartOfWeek(t *testing.T) {
	got := StartOfWeek()

	if got.Weekday() != time.Sunday {
		t.Errorf("expected Sunday, got %v", got.Weekday())
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("expected midnight, got %v", got)
	}
	if got.After(time.Now()) {
		t.Errorf("start of week %v is in the future", got)
	}
	if time.Since(got) > 8*24*time.Hour {
		t.Errorf("start of week %v is more than a week ago", got)
	}
}
