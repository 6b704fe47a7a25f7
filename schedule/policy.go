package schedule

import "github.com/yuzuhara/habitsched/store"

// Expandable reports whether a habit participates in calendar expansion.
// Inactive, completed and avoid-type habits never appear on the calendar,
// and neither does any habit whose goal chain contains a completed
// ancestor. A dangling GoalID does not suppress the habit.
func Expandable(h *store.Habit, goals map[string]*store.Goal) bool {
	if h == nil || !h.Active || h.Completed || h.Type == store.HabitAvoid {
		return false
	}

	seen := make(map[string]bool)
	for id := h.GoalID; id != "" && !seen[id]; {
		seen[id] = true
		g, ok := goals[id]
		if !ok {
			break
		}
		if g.IsCompleted {
			return false
		}
		id = g.ParentID
	}
	return true
}

// Projectable reports whether a habit participates in planned-progress
// projection: only active, uncompleted do-type habits with a positive
// daily target do.
func Projectable(h *store.Habit) bool {
	return h != nil && h.Active && !h.Completed && h.Type == store.HabitDo && h.DailyTarget() > 0
}
