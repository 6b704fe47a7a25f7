// memory based implementation for testing purposes
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yuzuhara/habitsched/store"
)

// Store implements store.Storage using in-memory maps
type Store struct {
	mu         sync.RWMutex
	habits     map[string]*store.Habit      // key: userID/habitID
	goals      map[string]*store.Goal       // key: userID/goalID
	activities map[string][]*store.Activity // key: userID/habitID
}

// New creates a new in-memory storage
func New() *Store {
	return &Store{
		habits:     make(map[string]*store.Habit),
		goals:      make(map[string]*store.Goal),
		activities: make(map[string][]*store.Activity),
	}
}

func key(userID, id string) string {
	return fmt.Sprintf("%s/%s", userID, id)
}

// Habit operations

func (s *Store) GetHabit(_ context.Context, userID, habitID string) (*store.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[key(userID, habitID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "habit not found",
		}
	}

	return h, nil
}

func (s *Store) ListHabits(_ context.Context, userID string) ([]*store.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var habits []*store.Habit
	for _, h := range s.habits {
		if h.UserID == userID {
			habits = append(habits, h)
		}
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })

	return habits, nil
}

func (s *Store) CreateHabit(_ context.Context, h *store.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(h.UserID, h.ID)
	if _, exists := s.habits[k]; exists {
		return &store.Error{
			Type:    store.ErrAlreadyExists,
			Message: "habit already exists",
		}
	}

	s.habits[k] = h
	return nil
}

func (s *Store) UpdateHabit(_ context.Context, h *store.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(h.UserID, h.ID)
	if _, exists := s.habits[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "habit not found",
		}
	}

	s.habits[k] = h
	return nil
}

func (s *Store) DeleteHabit(_ context.Context, userID, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, habitID)
	if _, exists := s.habits[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "habit not found",
		}
	}

	delete(s.habits, k)
	delete(s.activities, k)
	return nil
}

// Goal operations

func (s *Store) GetGoal(_ context.Context, userID, goalID string) (*store.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[key(userID, goalID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "goal not found",
		}
	}

	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]*store.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []*store.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })

	return goals, nil
}

func (s *Store) CreateGoal(_ context.Context, g *store.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(g.UserID, g.ID)
	if _, exists := s.goals[k]; exists {
		return &store.Error{
			Type:    store.ErrAlreadyExists,
			Message: "goal already exists",
		}
	}

	s.goals[k] = g
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g *store.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(g.UserID, g.ID)
	if _, exists := s.goals[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "goal not found",
		}
	}

	s.goals[k] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, goalID)
	if _, exists := s.goals[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "goal not found",
		}
	}

	delete(s.goals, k)
	return nil
}

// Activity operations

func (s *Store) LogActivity(_ context.Context, a *store.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(a.UserID, a.HabitID)
	s.activities[k] = append(s.activities[k], a)
	return nil
}

func (s *Store) ListActivities(_ context.Context, userID, habitID string, opts *store.ActivityListOptions) ([]*store.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*store.Activity
	for _, a := range s.activities[key(userID, habitID)] {
		if opts != nil {
			if opts.Start != nil && a.LoggedAt.Before(*opts.Start) {
				continue
			}
			if opts.End != nil && a.LoggedAt.After(*opts.End) {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })

	return out, nil
}
