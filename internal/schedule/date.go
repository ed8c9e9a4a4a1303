package schedule

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates t to a calendar date at UTC midnight. Visit dates carry
// no time component; the time of day lives in the rule's window fields.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// nextOnOrAfter returns the first date on or after start that falls on the
// given weekday (0=Sunday..6=Saturday).
func nextOnOrAfter(start time.Time, weekday int) time.Time {
	delta := (weekday - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, delta)
}

// daysBetween returns the whole number of days from a to b. Both arguments
// must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
