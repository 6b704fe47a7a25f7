package schedule

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Date is a civil calendar date with no time-of-day or zone attached.
// Occurrence identity and day-matching operate on Dates; a Date only
// becomes an instant when anchored in a location via In.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	t = t.In(loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool {
	return o.Before(d)
}

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// ClockTime is a local wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict HH:MM string. Malformed input reports ok=false
// rather than an error; a missing or garbled slot time means "all-day".
func ParseClock(s string) (ClockTime, bool) {
	if len(s) != 5 || s[2] != ':' {
		return ClockTime{}, false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return ClockTime{}, false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return ClockTime{}, false
	}
	return ClockTime{Hour: h, Minute: m}, true
}

// Minutes returns the offset from midnight in minutes.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On anchors the clock time on the given day in loc.
func (c ClockTime) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// SlotWindow is the optional intra-day window of a timing. An absent start
// makes the timing all-day; an absent or inverted end gives zero duration.
type SlotWindow struct {
	Start mo.Option[ClockTime]
	End   mo.Option[ClockTime]
}

// AllDay reports whether the window has no start time.
func (w SlotWindow) AllDay() bool {
	return w.Start.IsAbsent()
}

// DurationMinutes returns end-start when both are present and end is after
// start, and 0 otherwise.
func (w SlotWindow) DurationMinutes() int {
	start, ok := w.Start.Get()
	if !ok {
		return 0
	}
	end, ok := w.End.Get()
	if !ok {
		return 0
	}
	if d := end.Minutes() - start.Minutes(); d > 0 {
		return d
	}
	return 0
}

// WeekdaySet is a bitmask of allowed weekdays, bit 0 = Sunday.
type WeekdaySet uint8

// Contains reports whether the weekday is in the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Add returns the set with the weekday included.
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Timing is one recurrence rule of a habit, as a tagged union: exactly one
// of DateTiming, DailyTiming, WeeklyTiming or MonthlyTiming.
type Timing interface {
	// AppliesOn reports whether the timing fires on the given day.
	AppliesOn(d Date) bool
	// Slot returns the timing's optional intra-day window.
	Slot() SlotWindow
}

// DateTiming fires exactly once, on its named day.
type DateTiming struct {
	Date   Date
	Window SlotWindow
}

func (t DateTiming) AppliesOn(d Date) bool { return d == t.Date }
func (t DateTiming) Slot() SlotWindow      { return t.Window }

// DailyTiming fires every day.
type DailyTiming struct {
	Window SlotWindow
}

func (t DailyTiming) AppliesOn(Date) bool { return true }
func (t DailyTiming) Slot() SlotWindow    { return t.Window }

// WeeklyTiming fires on the weekdays in its set. An absent set matches every
// day; a present-but-empty set matches none.
type WeeklyTiming struct {
	Weekdays mo.Option[WeekdaySet]
	Window   SlotWindow
}

func (t WeeklyTiming) AppliesOn(d Date) bool {
	set, ok := t.Weekdays.Get()
	if !ok {
		return true
	}
	return set.Contains(d.Weekday())
}

func (t WeeklyTiming) Slot() SlotWindow { return t.Window }

// MonthlyTiming fires on a fixed day of every month.
type MonthlyTiming struct {
	DayOfMonth int
	Window     SlotWindow
}

func (t MonthlyTiming) AppliesOn(d Date) bool { return d.Day == t.DayOfMonth }
func (t MonthlyTiming) Slot() SlotWindow      { return t.Window }

// Occurrence is one concrete calendar instance of a habit within a window.
// Identity is (HabitID, TimingIndex, Date), stable across re-expansion so
// consumers can key diffing on it.
type Occurrence struct {
	HabitID     string
	TimingIndex int
	Date        Date
	Start       mo.Option[time.Time]
	End         mo.Option[time.Time]
}

// Key returns the stable identity string of the occurrence.
func (o Occurrence) Key() string {
	return fmt.Sprintf("%s/%d/%s", o.HabitID, o.TimingIndex, o.Date)
}

// AllDay reports whether the occurrence has no start instant.
func (o Occurrence) AllDay() bool {
	return o.Start.IsAbsent()
}
