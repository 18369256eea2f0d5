package scheduling

import (
	"time"
)

// DurationMinutes returns the length of [a, b) in minutes.
// Both instants must be set.
func DurationMinutes(a, b time.Time) (float64, error) {
	if a.IsZero() || b.IsZero() {
		return 0, ErrMissingInstant
	}
	return b.Sub(a).Minutes(), nil
}

// EndTime returns start plus the given number of minutes.
func EndTime(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

// gapAtLeast reports whether [from, to) is at least d long.
func gapAtLeast(from, to time.Time, d time.Duration) bool {
	return to.Sub(from) >= d
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// startOfDay returns local midnight of t's date shifted by days.
func startOfDay(t time.Time, days int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}
