package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/yuzuhara/habitsched/schedule"
)

var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RecurrenceRule compiles a recurring timing into an RRULE string
// (without the "RRULE:" prefix), validated by parsing it back through
// rrule-go. Date-type timings and weekly timings whose weekday set is
// empty have no rule; goalDue, when parseable, becomes an UNTIL bound.
func RecurrenceRule(t schedule.Timing, goalDue string) (string, bool) {
	var parts []string

	switch v := t.(type) {
	case schedule.DailyTiming:
		parts = append(parts, "FREQ=DAILY")

	case schedule.WeeklyTiming:
		set, restricted := v.Weekdays.Get()
		if !restricted {
			// No weekday restriction matches every day.
			parts = append(parts, "FREQ=DAILY")
			break
		}
		var days []string
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if set.Contains(wd) {
				days = append(days, weekdayCodes[wd])
			}
		}
		if len(days) == 0 {
			return "", false
		}
		parts = append(parts, "FREQ=WEEKLY", "BYDAY="+strings.Join(days, ","))

	case schedule.MonthlyTiming:
		parts = append(parts, "FREQ=MONTHLY", fmt.Sprintf("BYMONTHDAY=%d", v.DayOfMonth))

	default:
		return "", false
	}

	if goalDue != "" {
		if d, err := schedule.ParseDate(goalDue); err == nil {
			until := d.In(time.UTC).AddDate(0, 0, 1).Add(-time.Second)
			parts = append(parts, "UNTIL="+until.Format("20060102T150405Z"))
		}
	}

	rule := strings.Join(parts, ";")
	if _, err := rrule.StrToRRule(rule); err != nil {
		return "", false
	}
	return rule, true
}
