package store

import (
	"context"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HabitType distinguishes habits the user wants to do from ones to avoid.
// Only "do" habits appear on the calendar or in planned-progress series.
type HabitType string

const (
	HabitDo    HabitType = "do"
	HabitAvoid HabitType = "avoid"
)

// TimingRecord is the persisted, loosely-typed shape of one recurrence rule.
// Which fields are meaningful depends on Type; the schedule package parses
// records into a tagged union before any expansion happens.
type TimingRecord struct {
	Type  string // "Date", "Daily", "Weekly" or "Monthly"
	Date  string // YYYY-MM-DD; required for Date, day-of-month reference for Monthly
	Start string // HH:MM local wall-clock, empty = all-day
	End   string // HH:MM local wall-clock
	Cron  string // "WEEKDAYS:0,3,5" with 0 = Sunday; empty = every weekday allowed
}

// Habit is one recurring (or single-shot) tracked task.
type Habit struct {
	ID     string
	UserID string
	GoalID string
	Name   string
	Type   HabitType

	// Legacy single-occurrence fallback, used when Timings is empty.
	DueDate string // YYYY-MM-DD
	Time    string // HH:MM
	EndTime string // HH:MM

	Timings []TimingRecord

	WorkloadUnit  string  // display label, e.g. "min" or "pages"
	WorkloadTotal float64 // daily target quantity
	Must          float64 // legacy daily target, read when WorkloadTotal is unset

	Active    bool
	Completed bool

	Created  time.Time
	Modified time.Time
}

// DailyTarget resolves the habit's daily workload target, preferring
// WorkloadTotal over the legacy Must field. Zero means "no target".
func (h *Habit) DailyTarget() float64 {
	if h.WorkloadTotal > 0 {
		return h.WorkloadTotal
	}
	if h.Must > 0 {
		return h.Must
	}
	return 0
}

// Goal owns zero or more habits. Goals form a chain via ParentID; a
// completed ancestor suppresses calendar expansion of all descendants.
type Goal struct {
	ID          string
	UserID      string
	ParentID    string
	Name        string
	DueDate     string // YYYY-MM-DD, empty = open-ended
	IsCompleted bool

	Created  time.Time
	Modified time.Time
}

// Activity is one logged unit of habit completion.
type Activity struct {
	ID       string
	UserID   string
	HabitID  string
	LoggedAt time.Time
	Amount   float64
}

// ActivityListOptions filters activity listings by time range.
type ActivityListOptions struct {
	Start *time.Time
	End   *time.Time
}

// Storage is the interface that must be implemented by storage backends
type Storage interface {
	// Habit operations
	GetHabit(ctx context.Context, userID, habitID string) (*Habit, error)
	ListHabits(ctx context.Context, userID string) ([]*Habit, error)
	CreateHabit(ctx context.Context, h *Habit) error
	UpdateHabit(ctx context.Context, h *Habit) error
	DeleteHabit(ctx context.Context, userID, habitID string) error

	// Goal operations
	GetGoal(ctx context.Context, userID, goalID string) (*Goal, error)
	ListGoals(ctx context.Context, userID string) ([]*Goal, error)
	CreateGoal(ctx context.Context, g *Goal) error
	UpdateGoal(ctx context.Context, g *Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error

	// Activity operations
	LogActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, userID, habitID string, opts *ActivityListOptions) ([]*Activity, error)
}

// GoalIndex builds an ID-keyed lookup map from a goal listing, the shape the
// schedule policy helpers consume.
func GoalIndex(goals []*Goal) map[string]*Goal {
	idx := make(map[string]*Goal, len(goals))
	for _, g := range goals {
		idx[g.ID] = g
	}
	return idx
}
