// Package timeutil provides civil-date arithmetic in an explicit location.
// All helpers treat days as local wall-clock days in the given *time.Location;
// callers choose the reference zone instead of inheriting an ambient one.
package timeutil

import "time"

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the exclusive end of t's calendar day in loc,
// i.e. midnight of the following day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1)
}

// TodayIn returns midnight of the current day in loc.
func TodayIn(loc *time.Location) time.Time {
	return StartOfDay(time.Now(), loc)
}

// WithinClosed reports whether t lies in the closed interval [start, end].
func WithinClosed(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
