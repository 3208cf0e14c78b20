package model

import "time"

// Defaults substituted for optional VEVENT properties.
const (
	DefaultSummary     = "No Title"
	DefaultDescription = "No Description"
	DefaultLocation    = "No Location"
)

// StartLayout renders Event.Start in responses, e.g. "2024-03-10 14:00 UTC".
const StartLayout = "2006-01-02 15:04 MST"

// Event is a single calendar entry after timezone normalization.
type Event struct {
	Summary     string
	Description string
	Location    string

	// Start is always in UTC.
	Start time.Time
}

// DateWindow selects events by whole-day offsets from today's UTC midnight.
// A valid window has StartDay >= 0 and EndDay > StartDay.
type DateWindow struct {
	StartDay int
	EndDay   int
}

// Clamp returns the window with StartDay raised to 0 if negative and EndDay
// forced to StartDay+1 if it does not lie after StartDay.
func (w DateWindow) Clamp() DateWindow {
	if w.StartDay < 0 {
		w.StartDay = 0
	}
	if w.EndDay <= w.StartDay {
		w.EndDay = w.StartDay + 1
	}
	return w
}

// Bounds returns the closed interval [start, end] the window covers relative
// to now.
func (w DateWindow) Bounds(now time.Time) (start, end time.Time) {
	today := MidnightUTC(now)
	return today.AddDate(0, 0, w.StartDay), today.AddDate(0, 0, w.EndDay)
}

// MidnightUTC truncates t to 00:00 of its UTC calendar day.
func MidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
