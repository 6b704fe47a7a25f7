// Package sqlite provides a SQLite-backed store.Storage implementation.
// Timing records are persisted as a JSON column; everything else maps to
// plain columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yuzuhara/habitsched/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS goals (
	id           TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	parent_id    TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	due_date     TEXT NOT NULL DEFAULT '',
	is_completed INTEGER NOT NULL DEFAULT 0,
	created      TIMESTAMP,
	modified     TIMESTAMP,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS habits (
	id             TEXT NOT NULL,
	user_id        TEXT NOT NULL,
	goal_id        TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT 'do',
	due_date       TEXT NOT NULL DEFAULT '',
	time           TEXT NOT NULL DEFAULT '',
	end_time       TEXT NOT NULL DEFAULT '',
	timings        TEXT NOT NULL DEFAULT '[]',
	workload_unit  TEXT NOT NULL DEFAULT '',
	workload_total REAL NOT NULL DEFAULT 0,
	must           REAL NOT NULL DEFAULT 0,
	active         INTEGER NOT NULL DEFAULT 1,
	completed      INTEGER NOT NULL DEFAULT 0,
	created        TIMESTAMP,
	modified       TIMESTAMP,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS activities (
	id        TEXT NOT NULL PRIMARY KEY,
	user_id   TEXT NOT NULL,
	habit_id  TEXT NOT NULL,
	logged_at TIMESTAMP NOT NULL,
	amount    REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_activities_habit ON activities (user_id, habit_id, logged_at);
`

// Store implements store.Storage backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(what string) error {
	return &store.Error{Type: store.ErrNotFound, Message: what + " not found"}
}

// Habit operations

const habitColumns = `id, goal_id, name, type, due_date, time, end_time, timings,
	workload_unit, workload_total, must, active, completed, created, modified`

func (s *Store) scanHabit(row *sql.Row, userID string) (*store.Habit, error) {
	h := &store.Habit{UserID: userID}
	var timings string
	var created, modified sql.NullTime
	err := row.Scan(&h.ID, &h.GoalID, &h.Name, &h.Type, &h.DueDate, &h.Time, &h.EndTime, &timings,
		&h.WorkloadUnit, &h.WorkloadTotal, &h.Must, &h.Active, &h.Completed, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("habit")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}
	if err := json.Unmarshal([]byte(timings), &h.Timings); err != nil {
		return nil, fmt.Errorf("failed to decode timings: %w", err)
	}
	h.Created, h.Modified = created.Time, modified.Time
	return h, nil
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (*store.Habit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	return s.scanHabit(row, userID)
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]*store.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*store.Habit
	for rows.Next() {
		h := &store.Habit{UserID: userID}
		var timings string
		var created, modified sql.NullTime
		if err := rows.Scan(&h.ID, &h.GoalID, &h.Name, &h.Type, &h.DueDate, &h.Time, &h.EndTime, &timings,
			&h.WorkloadUnit, &h.WorkloadTotal, &h.Must, &h.Active, &h.Completed, &created, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		if err := json.Unmarshal([]byte(timings), &h.Timings); err != nil {
			return nil, fmt.Errorf("failed to decode timings: %w", err)
		}
		h.Created, h.Modified = created.Time, modified.Time
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func encodeTimings(h *store.Habit) (string, error) {
	timings := h.Timings
	if timings == nil {
		timings = []store.TimingRecord{}
	}
	b, err := json.Marshal(timings)
	if err != nil {
		return "", fmt.Errorf("failed to encode timings: %w", err)
	}
	return string(b), nil
}

func (s *Store) CreateHabit(ctx context.Context, h *store.Habit) error {
	timings, err := encodeTimings(h)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO habits (user_id, `+habitColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.ID, h.GoalID, h.Name, string(h.Type), h.DueDate, h.Time, h.EndTime, timings,
		h.WorkloadUnit, h.WorkloadTotal, h.Must, h.Active, h.Completed, h.Created, h.Modified)
	if err != nil {
		if isUniqueViolation(err) {
			return &store.Error{Type: store.ErrAlreadyExists, Message: "habit already exists"}
		}
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *store.Habit) error {
	timings, err := encodeTimings(h)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE habits SET goal_id = ?, name = ?, type = ?, due_date = ?, time = ?, end_time = ?,
		 timings = ?, workload_unit = ?, workload_total = ?, must = ?, active = ?, completed = ?, modified = ?
		 WHERE user_id = ? AND id = ?`,
		h.GoalID, h.Name, string(h.Type), h.DueDate, h.Time, h.EndTime,
		timings, h.WorkloadUnit, h.WorkloadTotal, h.Must, h.Active, h.Completed, h.Modified,
		h.UserID, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return requireRow(res, "habit")
}

func (s *Store) DeleteHabit(ctx context.Context, userID, habitID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if err := requireRow(res, "habit"); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM activities WHERE user_id = ? AND habit_id = ?`, userID, habitID)
	if err != nil {
		return fmt.Errorf("failed to delete habit activities: %w", err)
	}
	return nil
}

// Goal operations

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*store.Goal, error) {
	g := &store.Goal{UserID: userID}
	var created, modified sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, parent_id, name, due_date, is_completed, created, modified
		 FROM goals WHERE user_id = ? AND id = ?`, userID, goalID).
		Scan(&g.ID, &g.ParentID, &g.Name, &g.DueDate, &g.IsCompleted, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("goal")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}
	g.Created, g.Modified = created.Time, modified.Time
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]*store.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, name, due_date, is_completed, created, modified
		 FROM goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*store.Goal
	for rows.Next() {
		g := &store.Goal{UserID: userID}
		var created, modified sql.NullTime
		if err := rows.Scan(&g.ID, &g.ParentID, &g.Name, &g.DueDate, &g.IsCompleted, &created, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.Created, g.Modified = created.Time, modified.Time
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) CreateGoal(ctx context.Context, g *store.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, id, parent_id, name, due_date, is_completed, created, modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.ID, g.ParentID, g.Name, g.DueDate, g.IsCompleted, g.Created, g.Modified)
	if err != nil {
		if isUniqueViolation(err) {
			return &store.Error{Type: store.ErrAlreadyExists, Message: "goal already exists"}
		}
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (s *Store) UpdateGoal(ctx context.Context, g *store.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET parent_id = ?, name = ?, due_date = ?, is_completed = ?, modified = ?
		 WHERE user_id = ? AND id = ?`,
		g.ParentID, g.Name, g.DueDate, g.IsCompleted, g.Modified, g.UserID, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return requireRow(res, "goal")
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return requireRow(res, "goal")
}

// Activity operations

func (s *Store) LogActivity(ctx context.Context, a *store.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, habit_id, logged_at, amount) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.HabitID, a.LoggedAt.UTC(), a.Amount)
	if err != nil {
		if isUniqueViolation(err) {
			return &store.Error{Type: store.ErrAlreadyExists, Message: "activity already exists"}
		}
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivities(ctx context.Context, userID, habitID string, opts *store.ActivityListOptions) ([]*store.Activity, error) {
	query := `SELECT id, logged_at, amount FROM activities WHERE user_id = ? AND habit_id = ?`
	args := []any{userID, habitID}
	if opts != nil && opts.Start != nil {
		query += ` AND logged_at >= ?`
		args = append(args, opts.Start.UTC())
	}
	if opts != nil && opts.End != nil {
		query += ` AND logged_at <= ?`
		args = append(args, opts.End.UTC())
	}
	query += ` ORDER BY logged_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*store.Activity
	for rows.Next() {
		a := &store.Activity{UserID: userID, HabitID: habitID}
		var loggedAt time.Time
		if err := rows.Scan(&a.ID, &loggedAt, &a.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.LoggedAt = loggedAt
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(what)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text;
	// there is no exported sentinel to match on.
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}
