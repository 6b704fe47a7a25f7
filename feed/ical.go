// Package feed exports expanded habit schedules for external consumers:
// iCalendar documents for calendar clients, an XML payload for widget
// embedding, and a read-only HTTP surface serving both plus planned-vs-
// actual chart series.
package feed

import (
	"sort"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/yuzuhara/habitsched/schedule"
	"github.com/yuzuhara/habitsched/store"
)

const calendarProductID = "-//habitsched//Feed//EN"

// OccurrenceUID returns the deterministic VEVENT UID for an occurrence,
// derived from its stable identity so re-exports keep the same UIDs.
func OccurrenceUID(occ schedule.Occurrence) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("habitsched://occurrence/"+occ.Key())).String()
}

type namedOccurrence struct {
	occ   schedule.Occurrence
	habit *store.Habit
}

// expandVisible expands every calendar-visible habit and returns the
// occurrences sorted by start instant (all-day first within a day), then
// by stable key.
func expandVisible(engine *schedule.Engine, habits []*store.Habit, goals map[string]*store.Goal, windowStart, windowEnd time.Time) []namedOccurrence {
	var out []namedOccurrence
	for _, h := range habits {
		if !schedule.Expandable(h, goals) {
			continue
		}
		for _, occ := range engine.Expand(h, goals[h.GoalID], windowStart, windowEnd) {
			out = append(out, namedOccurrence{occ: occ, habit: h})
		}
	}

	loc := engine.Location()
	sortKey := func(n namedOccurrence) time.Time {
		if start, ok := n.occ.Start.Get(); ok {
			return start
		}
		return n.occ.Date.In(loc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := sortKey(out[i]), sortKey(out[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].occ.Key() < out[j].occ.Key()
	})
	return out
}

// Calendar renders the habits' concrete occurrences in the closed window
// as an iCalendar document, one VEVENT per occurrence. UIDs are stable
// across re-export so clients can diff.
func Calendar(engine *schedule.Engine, habits []*store.Habit, goals map[string]*store.Goal, windowStart, windowEnd time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, n := range expandVisible(engine, habits, goals, windowStart, windowEnd) {
		event := occurrenceEvent(n.habit, n.occ, engine.Location())
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

func occurrenceEvent(habit *store.Habit, occ schedule.Occurrence, loc *time.Location) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, OccurrenceUID(occ))
	event.Props.SetText(ical.PropSummary, habit.Name)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if start, ok := occ.Start.Get(); ok {
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		if end, ok := occ.End.Get(); ok {
			event.Props.SetDateTime(ical.PropDateTimeEnd, end)
		}
		return event
	}

	// All-day: DATE-valued DTSTART/DTEND spanning exactly one day.
	setDateProp(event, ical.PropDateTimeStart, occ.Date)
	setDateProp(event, ical.PropDateTimeEnd, occ.Date.AddDays(1))
	return event
}

func setDateProp(event *ical.Event, name string, d schedule.Date) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDate)
	prop.Value = d.In(time.UTC).Format("20060102")
	event.Props.Set(prop)
}

// RuleCalendar renders a compact subscription feed: one master VEVENT per
// recurring timing carrying an RRULE, and single VEVENTs for Date-type
// timings. DTSTART is the first firing day at or after from, searched up
// to the engine's expansion horizon; timings that never fire are omitted.
func RuleCalendar(engine *schedule.Engine, habits []*store.Habit, goals map[string]*store.Goal, from time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	loc := engine.Location()
	fromDay := schedule.DateOf(from, loc)

	for _, h := range habits {
		if !schedule.Expandable(h, goals) {
			continue
		}
		var due string
		if g := goals[h.GoalID]; g != nil {
			due = g.DueDate
		}
		for i, t := range schedule.ResolveTimings(h) {
			if t == nil {
				continue
			}
			event, ok := timingEvent(h, i, t, fromDay, due, loc)
			if !ok {
				continue
			}
			cal.Children = append(cal.Children, event.Component)
		}
	}
	return cal
}

func timingEvent(habit *store.Habit, timingIndex int, t schedule.Timing, fromDay schedule.Date, goalDue string, loc *time.Location) (*ical.Event, bool) {
	first, ok := firstFiringDay(t, fromDay)
	if !ok {
		return nil, false
	}

	occ := schedule.Occurrence{HabitID: habit.ID, TimingIndex: timingIndex, Date: first}
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, OccurrenceUID(occ))
	event.Props.SetText(ical.PropSummary, habit.Name)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if start, ok := t.Slot().Start.Get(); ok {
		event.Props.SetDateTime(ical.PropDateTimeStart, start.On(first, loc))
		if end, ok := t.Slot().End.Get(); ok {
			event.Props.SetDateTime(ical.PropDateTimeEnd, end.On(first, loc))
		}
	} else {
		setDateProp(event, ical.PropDateTimeStart, first)
		setDateProp(event, ical.PropDateTimeEnd, first.AddDays(1))
	}

	if rule, ok := RecurrenceRule(t, goalDue); ok {
		event.Props.SetText(ical.PropRecurrenceRule, rule)
	}
	return event, true
}

// firstFiringDay scans forward from the given day for the timing's first
// firing day, bounded by the indefinite-expansion horizon.
func firstFiringDay(t schedule.Timing, from schedule.Date) (schedule.Date, bool) {
	if dt, ok := t.(schedule.DateTiming); ok {
		if dt.Date.Before(from) {
			return schedule.Date{}, false
		}
		return dt.Date, true
	}
	for d, n := from, 0; n <= schedule.IndefiniteHorizonDays; d, n = d.AddDays(1), n+1 {
		if t.AppliesOn(d) {
			return d, true
		}
	}
	return schedule.Date{}, false
}
