package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const ClockLayout = "15:04:05"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ClockOffset returns the time elapsed since midnight of the value's own day.
func ClockOffset(value time.Time) time.Duration {
	return time.Duration(value.Hour())*time.Hour +
		time.Duration(value.Minute())*time.Minute +
		time.Duration(value.Second())*time.Second
}

// ParseClock parses a 24-hour "HH:MM:SS" (or "HH:MM") time of day into an offset from midnight.
func ParseClock(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{ClockLayout, "15:04"} {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return ClockOffset(parsed), nil
		}
	}
	return 0, fmt.Errorf("unsupported clock format: %q (expected HH:MM:SS)", raw)
}

func FormatClock(offset time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset).Format(ClockLayout)
}
