package schedule

import (
	"time"

	"github.com/samber/mo"

	"github.com/yuzuhara/habitsched/internal/timeutil"
	"github.com/yuzuhara/habitsched/store"
)

// Engine expands habit timings into concrete calendar occurrences. It is a
// pure function of its inputs apart from the optional result cache, which
// never changes observable output.
type Engine struct {
	loc   *time.Location
	cache *ExpansionCache
}

// NewEngine creates an expansion engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithConfig creates an expansion engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	var cache *ExpansionCache
	if config.CacheEnabled {
		cache = NewExpansionCache(config.CacheConfig)
	}

	return &Engine{loc: loc, cache: cache}
}

// Location returns the engine's reference timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Close releases the engine's cache resources, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports cache statistics; zero-valued when caching is off.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Expand produces every concrete occurrence of the habit's timings inside
// the closed window [windowStart, windowEnd]. Recurring timings are walked
// day by day up to min(goal due date, windowStart + IndefiniteHorizonDays);
// Date-type timings fire on their single named day only and ignore the
// horizon. Output is grouped by timing then day, deterministic for fixed
// inputs, and not globally time-sorted; callers sort when they need order.
func (e *Engine) Expand(habit *store.Habit, goal *store.Goal, windowStart, windowEnd time.Time) []Occurrence {
	if habit == nil || windowEnd.Before(windowStart) {
		return nil
	}

	timings := ResolveTimings(habit)
	if len(timings) == 0 {
		return nil
	}

	if e.cache != nil {
		if occs, ok := e.cache.Get(habit, goal, windowStart, windowEnd, e.loc); ok {
			return occs
		}
	}

	firstDay := DateOf(windowStart, e.loc)
	lastDay := DateOf(windowEnd, e.loc)
	horizonDay := e.horizonDay(windowStart, goal)

	var occurrences []Occurrence
	for i, t := range timings {
		if t == nil {
			continue
		}

		if dt, ok := t.(DateTiming); ok {
			// Single-shot: no horizon walk, just the one named day.
			if !dt.Date.Before(firstDay) && !dt.Date.After(lastDay) {
				if occ, ok := e.occurrenceOn(habit.ID, i, dt, dt.Date, windowStart, windowEnd); ok {
					occurrences = append(occurrences, occ)
				}
			}
			continue
		}

		last := lastDay
		if horizonDay.Before(last) {
			last = horizonDay
		}
		for d := firstDay; !d.After(last); d = d.AddDays(1) {
			if !t.AppliesOn(d) {
				continue
			}
			if occ, ok := e.occurrenceOn(habit.ID, i, t, d, windowStart, windowEnd); ok {
				occurrences = append(occurrences, occ)
			}
		}
	}

	if e.cache != nil {
		e.cache.Set(habit, goal, windowStart, windowEnd, e.loc, occurrences)
	}

	return occurrences
}

// horizonDay returns the furthest day recurring timings may expand to:
// the goal's due date when set and nearer, the 5-year ceiling otherwise.
// An unparseable or dangling goal due date falls back to the ceiling.
func (e *Engine) horizonDay(windowStart time.Time, goal *store.Goal) Date {
	ceiling := DateOf(windowStart, e.loc).AddDays(IndefiniteHorizonDays)

	if goal == nil || goal.DueDate == "" {
		return ceiling
	}
	due, err := ParseDate(goal.DueDate)
	if err != nil {
		return ceiling
	}
	if due.Before(ceiling) {
		return due
	}
	return ceiling
}

// occurrenceOn materializes one occurrence of a timing on day d, or
// reports false when the timed instant falls outside the window.
func (e *Engine) occurrenceOn(habitID string, timingIndex int, t Timing, d Date, windowStart, windowEnd time.Time) (Occurrence, bool) {
	occ := Occurrence{HabitID: habitID, TimingIndex: timingIndex, Date: d}

	slot := t.Slot()
	start, ok := slot.Start.Get()
	if !ok {
		// All-day occurrence; the day walk already constrained d to the window.
		return occ, true
	}

	startAt := start.On(d, e.loc)
	if !timeutil.WithinClosed(startAt, windowStart, windowEnd) {
		return Occurrence{}, false
	}
	occ.Start = mo.Some(startAt)
	if end, ok := slot.End.Get(); ok {
		occ.End = mo.Some(end.On(d, e.loc))
	}
	return occ, true
}
