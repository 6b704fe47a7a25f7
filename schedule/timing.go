package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/yuzuhara/habitsched/store"
)

// Timing record type names as persisted by the habit editor.
const (
	TimingTypeDate    = "Date"
	TimingTypeDaily   = "Daily"
	TimingTypeWeekly  = "Weekly"
	TimingTypeMonthly = "Monthly"
)

const weekdaysCronPrefix = "WEEKDAYS:"

// ParseWeekdaySet parses the "WEEKDAYS:<0-6 list>" cron encoding, 0 = Sunday.
// An empty list yields an empty set (matches no day); list entries outside
// 0-6 or non-numeric are ignored.
func ParseWeekdaySet(cron string) (WeekdaySet, error) {
	rest, ok := strings.CutPrefix(cron, weekdaysCronPrefix)
	if !ok {
		return 0, fmt.Errorf("unsupported cron encoding %q", cron)
	}

	var set WeekdaySet
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		set = set.Add(time.Weekday(n))
	}
	return set, nil
}

// parseWindow builds a slot window from loose HH:MM strings. Malformed
// times are treated as absent, never rejected.
func parseWindow(start, end string) SlotWindow {
	var w SlotWindow
	if c, ok := ParseClock(start); ok {
		w.Start = mo.Some(c)
	}
	if c, ok := ParseClock(end); ok {
		w.End = mo.Some(c)
	}
	return w
}

// ParseTiming converts one persisted timing record into its tagged-union
// form. Records that cannot possibly fire (unknown type, Date/Monthly with
// no usable date) return an error and are skipped by ResolveTimings.
func ParseTiming(rec store.TimingRecord) (Timing, error) {
	window := parseWindow(rec.Start, rec.End)

	switch rec.Type {
	case TimingTypeDate:
		d, err := ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("date timing: %w", err)
		}
		return DateTiming{Date: d, Window: window}, nil

	case TimingTypeDaily:
		return DailyTiming{Window: window}, nil

	case TimingTypeWeekly:
		t := WeeklyTiming{Window: window}
		if rec.Cron != "" {
			set, err := ParseWeekdaySet(rec.Cron)
			if err != nil {
				return nil, fmt.Errorf("weekly timing: %w", err)
			}
			t.Weekdays = mo.Some(set)
		}
		return t, nil

	case TimingTypeMonthly:
		d, err := ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("monthly timing: %w", err)
		}
		return MonthlyTiming{DayOfMonth: d.Day, Window: window}, nil

	default:
		return nil, fmt.Errorf("unknown timing type %q", rec.Type)
	}
}

// ResolveTimings returns the habit's effective timings, positionally
// aligned with the habit's timing records so occurrence identity
// (habitID, timingIndex, date) stays stable; unparseable records leave a
// nil slot. When the habit has no timing records at all, a single fallback
// timing is synthesized from the legacy DueDate/Time/EndTime fields: a
// Date timing when DueDate is set, a Daily timing otherwise.
func ResolveTimings(h *store.Habit) []Timing {
	if h == nil {
		return nil
	}

	if len(h.Timings) == 0 {
		window := parseWindow(h.Time, h.EndTime)
		if h.DueDate != "" {
			d, err := ParseDate(h.DueDate)
			if err != nil {
				return nil
			}
			return []Timing{DateTiming{Date: d, Window: window}}
		}
		return []Timing{DailyTiming{Window: window}}
	}

	timings := make([]Timing, len(h.Timings))
	for i, rec := range h.Timings {
		t, err := ParseTiming(rec)
		if err != nil {
			continue
		}
		timings[i] = t
	}
	return timings
}
