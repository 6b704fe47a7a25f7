// Package projection builds planned-vs-actual cumulative workload series.
//
// The planned series answers "what would the cumulative total look like
// under perfect adherence to the full recurring schedule": every day on
// which at least one timing fires contributes exactly the habit's daily
// target, however many of its slots actually fire that day. The
// alternative reading (scale by elapsed calendar days instead of firing
// days) is a product choice this package deliberately does not implement.
package projection

import (
	"sort"
	"time"

	"github.com/yuzuhara/habitsched/internal/timeutil"
	"github.com/yuzuhara/habitsched/schedule"
	"github.com/yuzuhara/habitsched/store"
)

// Point is one sample of a cumulative workload series.
type Point struct {
	Timestamp  time.Time
	Cumulative float64
}

// Projector walks a habit's schedule across a window and accumulates the
// planned workload. Pure and stateless; safe for concurrent use.
type Projector struct {
	loc *time.Location
}

// New creates a projector using the local timezone.
func New() *Projector {
	return NewInLocation(time.Local)
}

// NewInLocation creates a projector with an explicit reference timezone.
func NewInLocation(loc *time.Location) *Projector {
	if loc == nil {
		loc = time.Local
	}
	return &Projector{loc: loc}
}

// Project builds the planned cumulative series for the habit over the
// closed window [windowStart, windowEnd]. The result is non-decreasing in
// cumulative value, and empty when the habit has no positive daily target,
// no usable timings, or is an avoid-type habit.
func (p *Projector) Project(habit *store.Habit, windowStart, windowEnd time.Time) []Point {
	if habit == nil || habit.Type == store.HabitAvoid || windowEnd.Before(windowStart) {
		return nil
	}

	dailyTarget := habit.DailyTarget()
	if dailyTarget <= 0 {
		return nil
	}

	timings := schedule.ResolveTimings(habit)
	allocations, valid := allocate(timings, dailyTarget)
	if valid == 0 {
		return nil
	}

	firstDay := schedule.DateOf(windowStart, p.loc)
	lastDay := schedule.DateOf(windowEnd, p.loc)

	var points []Point
	running := 0.0
	for d := firstDay; !d.After(lastDay); d = d.AddDays(1) {
		for _, slot := range p.daySlots(timings, allocations, d, dailyTarget) {
			running += slot.delta
			if timeutil.WithinClosed(slot.at, windowStart, windowEnd) {
				points = append(points, Point{Timestamp: slot.at, Cumulative: running})
			}
		}
	}

	if len(points) == 0 {
		return nil
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return collapse(points)
}

// allocate splits the daily target across timings proportional to their
// intra-day duration; when no timing has a duration the target is split
// equally instead. Nil (unparseable) timing slots get no allocation.
// Returns the per-index allocations and the count of usable timings.
func allocate(timings []schedule.Timing, dailyTarget float64) ([]float64, int) {
	allocations := make([]float64, len(timings))

	valid := 0
	totalMinutes := 0
	for _, t := range timings {
		if t == nil {
			continue
		}
		valid++
		totalMinutes += t.Slot().DurationMinutes()
	}
	if valid == 0 {
		return allocations, 0
	}

	for i, t := range timings {
		if t == nil {
			continue
		}
		if totalMinutes > 0 {
			allocations[i] = dailyTarget * float64(t.Slot().DurationMinutes()) / float64(totalMinutes)
		} else {
			allocations[i] = dailyTarget / float64(valid)
		}
	}
	return allocations, valid
}

type daySlot struct {
	at    time.Time
	delta float64
}

// daySlots returns the day's firing slots with allocations rescaled so
// they always sum to exactly the daily target: a fully-adherent day
// contributes the whole target no matter how many slots fired. Slots are
// ordered by their emission instant so accumulation stays monotonic even
// when slot windows are listed out of clock order.
func (p *Projector) daySlots(timings []schedule.Timing, allocations []float64, d schedule.Date, dailyTarget float64) []daySlot {
	daySum := 0.0
	var slots []daySlot
	for i, t := range timings {
		if t == nil || !t.AppliesOn(d) {
			continue
		}
		daySum += allocations[i]
		slots = append(slots, daySlot{at: p.slotInstant(t, d), delta: allocations[i]})
	}
	if len(slots) == 0 {
		return nil
	}
	if daySum <= 0 {
		// A firing day whose slots all carry zero weight still must reach
		// the full target; split it equally across the day's slots.
		for i := range slots {
			slots[i].delta = dailyTarget / float64(len(slots))
		}
	} else if daySum != dailyTarget {
		scale := dailyTarget / daySum
		for i := range slots {
			slots[i].delta *= scale
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].at.Before(slots[j].at) })
	return slots
}

// slotInstant is where a slot's planned point lands: the slot's end time
// on that day, or the exclusive end of the day for all-day slots.
func (p *Projector) slotInstant(t schedule.Timing, d schedule.Date) time.Time {
	if end, ok := t.Slot().End.Get(); ok {
		return end.On(d, p.loc)
	}
	return timeutil.EndOfDay(d.In(p.loc), p.loc)
}

// collapse drops duplicate timestamps, keeping the maximum cumulative
// value at each instant. Input must be sorted by timestamp.
func collapse(points []Point) []Point {
	out := points[:0]
	for _, pt := range points {
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(pt.Timestamp) {
			if pt.Cumulative > out[len(out)-1].Cumulative {
				out[len(out)-1] = pt
			}
			continue
		}
		out = append(out, pt)
	}
	return out
}

// ActualSeries builds the cumulative series of logged activity within the
// closed window. The series starts from zero at the window start; activity
// logged outside the window does not contribute.
func ActualSeries(activities []*store.Activity, windowStart, windowEnd time.Time) []Point {
	sorted := make([]*store.Activity, 0, len(activities))
	for _, a := range activities {
		if a == nil || !timeutil.WithinClosed(a.LoggedAt, windowStart, windowEnd) {
			continue
		}
		sorted = append(sorted, a)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LoggedAt.Before(sorted[j].LoggedAt) })

	var points []Point
	running := 0.0
	for _, a := range sorted {
		running += a.Amount
		points = append(points, Point{Timestamp: a.LoggedAt, Cumulative: running})
	}
	return collapse(points)
}

// Normalize rescales a cumulative series to a 0..1 ratio of the given
// denominator, so planned and actual curves can overlay on one axis.
// A non-positive denominator yields nil.
func Normalize(points []Point, denom float64) []Point {
	if denom <= 0 || len(points) == 0 {
		return nil
	}
	out := make([]Point, len(points))
	for i, pt := range points {
		out[i] = Point{Timestamp: pt.Timestamp, Cumulative: pt.Cumulative / denom}
	}
	return out
}
