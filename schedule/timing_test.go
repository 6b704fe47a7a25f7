package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzuhara/habitsched/store"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  ClockTime
		ok    bool
	}{
		{"09:30", ClockTime{9, 30}, true},
		{"00:00", ClockTime{0, 0}, true},
		{"23:59", ClockTime{23, 59}, true},
		{"24:00", ClockTime{}, false},
		{"12:60", ClockTime{}, false},
		{"9:30", ClockTime{}, false},   // must be zero-padded
		{"09:3a", ClockTime{}, false},
		{"0930", ClockTime{}, false},
		{"", ClockTime{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseClock(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseWeekdaySet(t *testing.T) {
	set, err := ParseWeekdaySet("WEEKDAYS:1,3,5")
	require.NoError(t, err)
	assert.True(t, set.Contains(time.Monday))
	assert.True(t, set.Contains(time.Wednesday))
	assert.True(t, set.Contains(time.Friday))
	assert.False(t, set.Contains(time.Sunday))
	assert.False(t, set.Contains(time.Tuesday))

	// Empty list is a valid set that matches no day.
	empty, err := ParseWeekdaySet("WEEKDAYS:")
	require.NoError(t, err)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		assert.False(t, empty.Contains(wd))
	}

	// Out-of-range and junk entries are ignored.
	set, err = ParseWeekdaySet("WEEKDAYS:0,7,-1,x,6")
	require.NoError(t, err)
	assert.True(t, set.Contains(time.Sunday))
	assert.True(t, set.Contains(time.Saturday))
	assert.False(t, set.Contains(time.Monday))

	_, err = ParseWeekdaySet("MONTHDAYS:1")
	assert.Error(t, err)
}

func TestParseTiming(t *testing.T) {
	t.Run("date", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Date", Date: "2024-06-15", Start: "09:00", End: "10:00"})
		require.NoError(t, err)

		dt, ok := timing.(DateTiming)
		require.True(t, ok)
		assert.Equal(t, Date{2024, time.June, 15}, dt.Date)
		assert.True(t, dt.AppliesOn(Date{2024, time.June, 15}))
		assert.False(t, dt.AppliesOn(Date{2024, time.June, 16}))
		assert.Equal(t, 60, dt.Slot().DurationMinutes())
	})

	t.Run("date without date is rejected", func(t *testing.T) {
		_, err := ParseTiming(store.TimingRecord{Type: "Date"})
		assert.Error(t, err)
	})

	t.Run("malformed times become all-day", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Daily", Start: "9am", End: "later"})
		require.NoError(t, err)
		assert.True(t, timing.Slot().AllDay())
		assert.Equal(t, 0, timing.Slot().DurationMinutes())
	})

	t.Run("inverted window has zero duration", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Daily", Start: "18:00", End: "09:00"})
		require.NoError(t, err)
		assert.Equal(t, 0, timing.Slot().DurationMinutes())
	})

	t.Run("weekly without cron matches every day", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Weekly"})
		require.NoError(t, err)
		for d := (Date{2024, time.January, 1}); d.Before(Date{2024, time.January, 8}); d = d.AddDays(1) {
			assert.True(t, timing.AppliesOn(d))
		}
	})

	t.Run("weekly with empty list matches no day", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Weekly", Cron: "WEEKDAYS:"})
		require.NoError(t, err)
		for d := (Date{2024, time.January, 1}); d.Before(Date{2024, time.January, 8}); d = d.AddDays(1) {
			assert.False(t, timing.AppliesOn(d))
		}
	})

	t.Run("monthly matches day of month", func(t *testing.T) {
		timing, err := ParseTiming(store.TimingRecord{Type: "Monthly", Date: "2024-01-15"})
		require.NoError(t, err)
		assert.True(t, timing.AppliesOn(Date{2024, time.March, 15}))
		assert.False(t, timing.AppliesOn(Date{2024, time.March, 14}))
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := ParseTiming(store.TimingRecord{Type: "Hourly"})
		assert.Error(t, err)
	})
}

func TestResolveTimings(t *testing.T) {
	t.Run("fallback date timing from due date", func(t *testing.T) {
		h := &store.Habit{DueDate: "2024-03-01"}
		timings := ResolveTimings(h)
		require.Len(t, timings, 1)

		dt, ok := timings[0].(DateTiming)
		require.True(t, ok)
		assert.Equal(t, Date{2024, time.March, 1}, dt.Date)
		assert.True(t, dt.Slot().AllDay())
	})

	t.Run("fallback daily timing from time window", func(t *testing.T) {
		h := &store.Habit{Time: "07:00", EndTime: "07:30"}
		timings := ResolveTimings(h)
		require.Len(t, timings, 1)

		_, ok := timings[0].(DailyTiming)
		require.True(t, ok)
		assert.Equal(t, 30, timings[0].Slot().DurationMinutes())
	})

	t.Run("invalid records keep their index", func(t *testing.T) {
		h := &store.Habit{Timings: []store.TimingRecord{
			{Type: "Hourly"},
			{Type: "Daily", Start: "09:00", End: "10:00"},
		}}
		timings := ResolveTimings(h)
		require.Len(t, timings, 2)
		assert.Nil(t, timings[0])
		assert.NotNil(t, timings[1])
	})

	t.Run("unparseable fallback due date yields nothing", func(t *testing.T) {
		h := &store.Habit{DueDate: "soon"}
		assert.Empty(t, ResolveTimings(h))
	})
}
