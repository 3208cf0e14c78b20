package ics

import (
	"slices"
	"time"

	"calfilter/internal/model"
)

// Normalize resolves a DTSTART to a UTC instant:
//   - zoned values are converted to UTC
//   - floating values keep their wall clock, read as UTC
//   - dates become UTC midnight of that date
func Normalize(s RawStart) time.Time {
	t := s.Time
	switch s.Kind {
	case StartZoned:
		return t.UTC()
	case StartDate:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
}

// Filter keeps the events whose normalized start lies within the closed
// interval window.Bounds(now) and returns them sorted by start. Events with
// equal starts keep their document order.
func Filter(raw []RawEvent, window model.DateWindow, now time.Time) []model.Event {
	from, to := window.Bounds(now)

	out := make([]model.Event, 0)
	for _, r := range raw {
		start := Normalize(r.Start)
		if start.Before(from) || start.After(to) {
			continue
		}
		out = append(out, model.Event{
			Summary:     r.Summary,
			Description: r.Description,
			Location:    r.Location,
			Start:       start,
		})
	}

	slices.SortStableFunc(out, func(a, b model.Event) int {
		return a.Start.Compare(b.Start)
	})
	return out
}
