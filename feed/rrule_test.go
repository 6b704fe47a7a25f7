package feed

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/yuzuhara/habitsched/schedule"
)

func TestRecurrenceRule(t *testing.T) {
	mondays := schedule.WeekdaySet(0).Add(time.Monday).Add(time.Wednesday)

	tests := []struct {
		name   string
		timing schedule.Timing
		due    string
		want   string
		ok     bool
	}{
		{
			name:   "daily",
			timing: schedule.DailyTiming{},
			want:   "FREQ=DAILY",
			ok:     true,
		},
		{
			name:   "weekly with weekday set",
			timing: schedule.WeeklyTiming{Weekdays: mo.Some(mondays)},
			want:   "FREQ=WEEKLY;BYDAY=MO,WE",
			ok:     true,
		},
		{
			name:   "weekly without restriction degrades to daily",
			timing: schedule.WeeklyTiming{},
			want:   "FREQ=DAILY",
			ok:     true,
		},
		{
			name:   "weekly with empty set has no rule",
			timing: schedule.WeeklyTiming{Weekdays: mo.Some(schedule.WeekdaySet(0))},
			ok:     false,
		},
		{
			name:   "monthly",
			timing: schedule.MonthlyTiming{DayOfMonth: 15},
			want:   "FREQ=MONTHLY;BYMONTHDAY=15",
			ok:     true,
		},
		{
			name:   "date timing has no rule",
			timing: schedule.DateTiming{Date: schedule.Date{Year: 2024, Month: time.June, Day: 15}},
			ok:     false,
		},
		{
			name:   "goal due date becomes until",
			timing: schedule.DailyTiming{},
			due:    "2024-06-01",
			want:   "FREQ=DAILY;UNTIL=20240601T235959Z",
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := RecurrenceRule(tt.timing, tt.due)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, rule)

			// Every produced rule must round-trip through rrule-go.
			_, err := rrule.StrToRRule(rule)
			require.NoError(t, err)
		})
	}
}
