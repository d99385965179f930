package utils

import "time"

// DateLayout is the wire and storage format for calendar dates. Dates in this
// layout compare lexicographically the same as chronologically.
const DateLayout = "2006-01-02"

// Today returns the current calendar date.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// AddDays shifts a calendar date by n days. The input must be a valid
// DateLayout date; invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// MinutesOfDay converts an "HH:MM" clock time to minutes from midnight.
func MinutesOfDay(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
