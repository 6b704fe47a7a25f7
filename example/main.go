// Command example seeds an in-memory store with a few habits and goals,
// prints their expanded schedule and planned series, and serves the feed
// endpoints on :8080.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yuzuhara/habitsched/feed"
	"github.com/yuzuhara/habitsched/internal/timeutil"
	"github.com/yuzuhara/habitsched/schedule"
	"github.com/yuzuhara/habitsched/schedule/projection"
	"github.com/yuzuhara/habitsched/store"
	"github.com/yuzuhara/habitsched/store/memory"
)

const (
	serverAddr = ":8080"
	feedPrefix = "/feed/"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st := setupStorage(logger)
	engine := schedule.NewEngine()
	defer engine.Close()

	printSchedule(st, engine, logger)

	router := feed.NewRouter(st, engine, feedPrefix, logger)
	http.Handle(feedPrefix, router)

	logger.Info("starting feed server",
		"addr", serverAddr,
		"calendar", fmt.Sprintf("http://localhost%susers/alice/calendar.ics", serverAddr+feedPrefix))
	if err := http.ListenAndServe(serverAddr, nil); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func setupStorage(logger *slog.Logger) *memory.Store {
	st := memory.New()
	ctx := context.Background()

	goals := []*store.Goal{
		{ID: "marathon", UserID: "alice", Name: "Run a marathon", DueDate: "2026-10-01"},
		{ID: "jlpt", UserID: "alice", Name: "Pass JLPT N2"},
	}
	habits := []*store.Habit{
		{
			ID: "run", UserID: "alice", GoalID: "marathon", Name: "Morning run",
			Type: store.HabitDo, Active: true,
			WorkloadUnit: "min", WorkloadTotal: 45,
			Timings: []store.TimingRecord{
				{Type: "Weekly", Cron: "WEEKDAYS:1,3,5", Start: "06:30", End: "07:15"},
			},
		},
		{
			ID: "vocab", UserID: "alice", GoalID: "jlpt", Name: "Vocabulary drill",
			Type: store.HabitDo, Active: true,
			WorkloadUnit: "words", WorkloadTotal: 30,
			Timings: []store.TimingRecord{
				{Type: "Daily", Start: "08:00", End: "08:20"},
				{Type: "Daily", Start: "21:00", End: "21:40"},
			},
		},
		{
			ID: "mock-exam", UserID: "alice", GoalID: "jlpt", Name: "Mock exam",
			Type: store.HabitDo, Active: true,
			DueDate: timeutil.TodayIn(time.Local).AddDate(0, 0, 10).Format("2006-01-02"),
		},
	}

	for _, g := range goals {
		if err := st.CreateGoal(ctx, g); err != nil {
			logger.Error("failed to seed goal", "goal", g.ID, "error", err)
		}
	}
	for _, h := range habits {
		if err := st.CreateHabit(ctx, h); err != nil {
			logger.Error("failed to seed habit", "habit", h.ID, "error", err)
		}
	}

	// A few logged sessions so the actual series has something to show.
	now := time.Now()
	for i, amount := range []float64{45, 30, 45} {
		a := &store.Activity{
			ID:       fmt.Sprintf("a%d", i),
			UserID:   "alice",
			HabitID:  "run",
			LoggedAt: now.AddDate(0, 0, -2+i),
			Amount:   amount,
		}
		if err := st.LogActivity(ctx, a); err != nil {
			logger.Error("failed to seed activity", "error", err)
		}
	}

	return st
}

func printSchedule(st *memory.Store, engine *schedule.Engine, logger *slog.Logger) {
	ctx := context.Background()

	habits, err := st.ListHabits(ctx, "alice")
	if err != nil {
		logger.Error("failed to list habits", "error", err)
		return
	}
	goalList, err := st.ListGoals(ctx, "alice")
	if err != nil {
		logger.Error("failed to list goals", "error", err)
		return
	}
	goals := store.GoalIndex(goalList)

	from := timeutil.TodayIn(engine.Location())
	to := from.AddDate(0, 0, 7)
	projector := projection.NewInLocation(engine.Location())

	for _, h := range habits {
		if !schedule.Expandable(h, goals) {
			continue
		}
		occs := engine.Expand(h, goals[h.GoalID], from, to)
		fmt.Printf("%s: %d occurrences this week\n", h.Name, len(occs))
		for _, occ := range occs {
			if start, ok := occ.Start.Get(); ok {
				fmt.Printf("  %s  %s\n", occ.Date, start.Format("15:04"))
			} else {
				fmt.Printf("  %s  all day\n", occ.Date)
			}
		}
		if points := projector.Project(h, from, to); len(points) > 0 {
			last := points[len(points)-1]
			fmt.Printf("  planned by %s: %.0f %s\n",
				last.Timestamp.Format("Jan 2 15:04"), last.Cumulative, h.WorkloadUnit)
		}
	}
}
