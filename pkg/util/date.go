package util

import (
	"time"
)

// DateKeyLayout is the calendar-day key format used by the report cache.
const DateKeyLayout = "2006-01-02"

// ReportingZone is the fixed reporting timezone (IST). Day buckets are cut
// at midnight in this zone regardless of server locale.
var ReportingZone = time.FixedZone("Asia/Kolkata", 5*3600+1800)

// DateKeyFor returns the reporting-day key for an instant.
func DateKeyFor(t time.Time) string {
	return t.In(ReportingZone).Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key into midnight of that reporting day.
func ParseDateKey(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateKeyLayout, s, ReportingZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsToday reports whether the key names the current reporting day.
func IsToday(key string, now time.Time) bool {
	return key == DateKeyFor(now)
}

// BeforeToday reports whether the key names a closed (frozen) reporting day.
// Unparseable keys are treated as historical so they get the long TTL.
func BeforeToday(key string, now time.Time) bool {
	t, ok := ParseDateKey(key)
	if !ok {
		return true
	}
	return t.Before(StartOfDay(now))
}

// StartOfDay truncates an instant to midnight of its reporting day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(ReportingZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ReportingZone)
}
