package util

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the note date format
const DateLayout = "2006-01-02"

// Window is the 24 hours from local midnight in a timezone, as [Since, Until)
type Window struct {
	Date  string // YYYY-MM-DD in the window's timezone
	Since time.Time
	Until time.Time
}

// DayWindow returns the window starting at local midnight of the day
// containing now, in loc. It spans a fixed 24h even across DST changes.
func DayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{
		Date:  start.Format(DateLayout),
		Since: start,
		Until: start.Add(24 * time.Hour),
	}
}

// ParseDay returns the window for a YYYY-MM-DD date in loc
func ParseDay(date string, loc *time.Location) (Window, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
	}
	return DayWindow(day, loc), nil
}

// CompactDate turns 2006-01-02 into 20060102
func CompactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}
