package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzuhara/habitsched/store"
)

const tolerance = 1e-9

func utcProjector() *Projector {
	return NewInLocation(time.UTC)
}

func doHabit(target float64, timings ...store.TimingRecord) *store.Habit {
	return &store.Habit{
		ID:            "h1",
		Type:          store.HabitDo,
		Active:        true,
		WorkloadTotal: target,
		Timings:       timings,
	}
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestProject_SingleDailySlot(t *testing.T) {
	habit := doHabit(60, store.TimingRecord{Type: "Daily", Start: "09:00", End: "10:00"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 1, 23, 59))

	require.Len(t, points, 1)
	assert.Equal(t, at(2024, time.January, 1, 10, 0), points[0].Timestamp)
	assert.InDelta(t, 60, points[0].Cumulative, tolerance)
}

func TestProject_DurationWeightedAllocation(t *testing.T) {
	habit := doHabit(90,
		store.TimingRecord{Type: "Daily", Start: "09:00", End: "09:30"},
		store.TimingRecord{Type: "Daily", Start: "18:00", End: "19:00"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 1, 23, 59))

	require.Len(t, points, 2)
	assert.Equal(t, at(2024, time.January, 1, 9, 30), points[0].Timestamp)
	assert.InDelta(t, 30, points[0].Cumulative, tolerance)
	assert.Equal(t, at(2024, time.January, 1, 19, 0), points[1].Timestamp)
	assert.InDelta(t, 90, points[1].Cumulative, tolerance)
}

func TestProject_WeeklyRescalesToFullTarget(t *testing.T) {
	// Mondays only over three weeks starting on a Monday: each firing day
	// contributes the full target, not a seventh of it.
	habit := doHabit(100,
		store.TimingRecord{Type: "Weekly", Cron: "WEEKDAYS:1", Start: "09:00", End: "10:00"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 21, 23, 59))

	require.Len(t, points, 3)
	for i, want := range []float64{100, 200, 300} {
		assert.InDelta(t, want, points[i].Cumulative, tolerance)
		assert.Equal(t, time.Monday, points[i].Timestamp.Weekday())
	}
}

func TestProject_PartialFiringDayRescale(t *testing.T) {
	// Daily slot plus a Mondays-only slot, equal durations. On Monday both
	// fire at 50 each; any other day the daily slot alone is rescaled to
	// the full 100.
	habit := doHabit(100,
		store.TimingRecord{Type: "Daily", Start: "09:00", End: "10:00"},
		store.TimingRecord{Type: "Weekly", Cron: "WEEKDAYS:1", Start: "18:00", End: "19:00"})

	// 2024-01-01 is a Monday.
	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 2, 23, 59))

	require.Len(t, points, 3)

	// Monday: 50 at 10:00, 100 at 19:00.
	assert.InDelta(t, 50, points[0].Cumulative, tolerance)
	assert.InDelta(t, 100, points[1].Cumulative, tolerance)
	// Tuesday: the lone daily slot carries the whole target.
	assert.InDelta(t, 200, points[2].Cumulative, tolerance)
	assert.Equal(t, at(2024, time.January, 2, 10, 0), points[2].Timestamp)
}

func TestProject_FullDayInvariant(t *testing.T) {
	// On any day where every timing fires, the day's deltas sum to exactly
	// the daily target.
	habit := doHabit(77,
		store.TimingRecord{Type: "Daily", Start: "06:00", End: "06:20"},
		store.TimingRecord{Type: "Daily", Start: "12:00", End: "12:45"},
		store.TimingRecord{Type: "Daily", Start: "21:00", End: "21:10"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 7, 23, 59))

	require.Len(t, points, 21)
	prev := 0.0
	for i, pt := range points {
		if (i+1)%3 == 0 {
			dayTotal := pt.Cumulative - prev
			assert.InDelta(t, 77, dayTotal, tolerance)
			prev = pt.Cumulative
		}
	}
	assert.InDelta(t, 7*77, points[len(points)-1].Cumulative, tolerance)
}

func TestProject_Monotonic(t *testing.T) {
	habit := doHabit(42,
		store.TimingRecord{Type: "Daily", Start: "18:00", End: "19:00"},
		store.TimingRecord{Type: "Daily", Start: "07:00", End: "07:30"},
		store.TimingRecord{Type: "Weekly", Cron: "WEEKDAYS:2,4,6"},
		store.TimingRecord{Type: "Monthly", Date: "2024-01-05"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.February, 15, 0, 0))

	require.NotEmpty(t, points)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Timestamp.After(points[i-1].Timestamp),
			"timestamps must be strictly increasing after collapse")
		assert.GreaterOrEqual(t, points[i].Cumulative, points[i-1].Cumulative)
	}
}

func TestProject_ZeroTargetIsEmpty(t *testing.T) {
	habit := doHabit(0, store.TimingRecord{Type: "Daily", Start: "09:00", End: "10:00"})
	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.December, 31, 0, 0))
	assert.Empty(t, points)
}

func TestProject_LegacyMustFallback(t *testing.T) {
	habit := doHabit(0, store.TimingRecord{Type: "Daily", Start: "09:00", End: "10:00"})
	habit.Must = 40

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 1, 23, 59))

	require.Len(t, points, 1)
	assert.InDelta(t, 40, points[0].Cumulative, tolerance)
}

func TestProject_AvoidHabitIsEmpty(t *testing.T) {
	habit := doHabit(60, store.TimingRecord{Type: "Daily", Start: "09:00", End: "10:00"})
	habit.Type = store.HabitAvoid
	assert.Empty(t, utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 2, 0, 0)))
}

func TestProject_EqualSplitWithoutDurations(t *testing.T) {
	// No slot has both start and end: equal split, points at day end.
	// Both all-day slots land on the same instant and collapse to one
	// point carrying the day's full target.
	habit := doHabit(100,
		store.TimingRecord{Type: "Daily"},
		store.TimingRecord{Type: "Daily", Start: "oops"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 2, 0, 0))

	require.Len(t, points, 1)
	assert.Equal(t, at(2024, time.January, 2, 0, 0), points[0].Timestamp)
	assert.InDelta(t, 100, points[0].Cumulative, tolerance)
}

func TestProject_DateTimingOnlyItsOwnDay(t *testing.T) {
	habit := doHabit(30, store.TimingRecord{Type: "Date", Date: "2024-01-03", Start: "09:00", End: "10:00"})

	points := utcProjector().Project(habit,
		at(2024, time.January, 1, 0, 0),
		at(2024, time.January, 7, 0, 0))

	require.Len(t, points, 1)
	assert.Equal(t, at(2024, time.January, 3, 10, 0), points[0].Timestamp)
	assert.InDelta(t, 30, points[0].Cumulative, tolerance)
}

func TestActualSeries(t *testing.T) {
	start := at(2024, time.January, 1, 0, 0)
	end := at(2024, time.January, 7, 0, 0)

	activities := []*store.Activity{
		{LoggedAt: at(2024, time.January, 2, 9, 0), Amount: 20},
		{LoggedAt: at(2024, time.January, 1, 8, 0), Amount: 10},
		{LoggedAt: at(2024, time.January, 8, 8, 0), Amount: 99}, // outside window
	}

	points := ActualSeries(activities, start, end)
	require.Len(t, points, 2)
	assert.InDelta(t, 10, points[0].Cumulative, tolerance)
	assert.InDelta(t, 30, points[1].Cumulative, tolerance)
}

func TestNormalize(t *testing.T) {
	points := []Point{
		{Timestamp: at(2024, time.January, 1, 10, 0), Cumulative: 30},
		{Timestamp: at(2024, time.January, 2, 10, 0), Cumulative: 60},
	}

	normalized := Normalize(points, 60)
	require.Len(t, normalized, 2)
	assert.InDelta(t, 0.5, normalized[0].Cumulative, tolerance)
	assert.InDelta(t, 1.0, normalized[1].Cumulative, tolerance)

	assert.Nil(t, Normalize(points, 0))
	assert.Nil(t, Normalize(nil, 10))
}
