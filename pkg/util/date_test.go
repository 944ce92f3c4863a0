package util

import (
	"testing"
	"time"
)

func TestDateKeyForCrossesMidnightIST(t *testing.T) {
	// 19:00 UTC is already the next day in IST (+05:30).
	got := DateKeyFor(time.Date(2025, 1, 5, 19, 0, 0, 0, time.UTC))
	if got != "2025-01-06" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestParseDateKeyRoundTrip(t *testing.T) {
	at, ok := ParseDateKey("2025-01-06")
	if !ok {
		t.Fatalf("expected ok")
	}
	if DateKeyFor(at) != "2025-01-06" {
		t.Fatalf("unexpected round trip %v", at)
	}
}

func TestParseDateKeyRejectsGarbage(t *testing.T) {
	if _, ok := ParseDateKey("06-01-2025"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestBeforeToday(t *testing.T) {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, ReportingZone)
	if !BeforeToday("2025-01-05", now) {
		t.Fatalf("yesterday should be historical")
	}
	if BeforeToday("2025-01-06", now) {
		t.Fatalf("today is not historical")
	}
	if BeforeToday("2025-01-07", now) {
		t.Fatalf("tomorrow is not historical")
	}
}

func TestIsToday(t *testing.T) {
	now := time.Date(2025, 1, 6, 23, 59, 0, 0, ReportingZone)
	if !IsToday("2025-01-06", now) {
		t.Fatalf("expected today")
	}
	if IsToday("2025-01-05", now) {
		t.Fatalf("not today")
	}
}
