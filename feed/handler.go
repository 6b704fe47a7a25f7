package feed

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/yuzuhara/habitsched/internal/timeutil"
	"github.com/yuzuhara/habitsched/schedule"
	"github.com/yuzuhara/habitsched/schedule/projection"
	"github.com/yuzuhara/habitsched/store"
)

const (
	// HTTP headers
	HeaderContentType = "Content-Type"

	// MIME types
	MimeTypeCalendar = "text/calendar; charset=utf-8"
	MimeTypeXML      = "application/xml; charset=utf-8"
	MimeTypeJSON     = "application/json; charset=utf-8"

	// Default window length when the to parameter is absent.
	DefaultWindowDays = 30
)

// Router serves the read-only feed endpoints:
//
//	GET {base}users/{userID}/calendar.ics
//	GET {base}users/{userID}/rules.ics
//	GET {base}users/{userID}/occurrences.xml
//	GET {base}users/{userID}/habits/{habitID}/planned.json
//
// All endpoints take optional from/to query parameters (RFC 3339 or
// YYYY-MM-DD); from defaults to today in the engine's timezone, to to
// from plus DefaultWindowDays.
type Router struct {
	storage   store.Storage
	engine    *schedule.Engine
	projector *projection.Projector
	baseURI   string
	logger    *slog.Logger
}

// NewRouter creates a new feed router
func NewRouter(storage store.Storage, engine *schedule.Engine, baseURI string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		storage:   storage,
		engine:    engine,
		projector: projection.NewInLocation(engine.Location()),
		baseURI:   baseURI,
		logger:    logger,
	}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.logger.Info("received request",
		"method", req.Method,
		"path", req.URL.Path,
		"remote_addr", req.RemoteAddr)

	if req.Method != http.MethodGet {
		r.logger.Warn("method not allowed",
			"method", req.Method,
			"path", req.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(req.URL.Path, r.baseURI)
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "calendar.ics":
		r.handleCalendar(w, req, parts[1], false)
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "rules.ics":
		r.handleCalendar(w, req, parts[1], true)
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "occurrences.xml":
		r.handleOccurrencesXML(w, req, parts[1])
	case len(parts) == 5 && parts[0] == "users" && parts[2] == "habits" && parts[4] == "planned.json":
		r.handlePlanned(w, req, parts[1], parts[3])
	default:
		http.NotFound(w, req)
	}
}

// window resolves the requested [from, to] window from query parameters.
func (r *Router) window(req *http.Request) (time.Time, time.Time, error) {
	loc := r.engine.Location()

	from := timeutil.TodayIn(loc)
	if s := req.URL.Query().Get("from"); s != "" {
		t, err := parseStamp(s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	to := from.AddDate(0, 0, DefaultWindowDays)
	if s := req.URL.Query().Get("to"); s != "" {
		t, err := parseStamp(s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to precedes from")
	}
	return from, to, nil
}

func parseStamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if d, err := schedule.ParseDate(s); err == nil {
		return d.In(loc), nil
	}
	return time.Time{}, errors.New("invalid timestamp, want RFC 3339 or YYYY-MM-DD")
}

// loadUser fetches the user's habits and indexed goals.
func (r *Router) loadUser(req *http.Request, userID string) ([]*store.Habit, map[string]*store.Goal, error) {
	habits, err := r.storage.ListHabits(req.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	goals, err := r.storage.ListGoals(req.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	return habits, store.GoalIndex(goals), nil
}

func (r *Router) handleCalendar(w http.ResponseWriter, req *http.Request, userID string, rules bool) {
	from, to, err := r.window(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	habits, goals, err := r.loadUser(req, userID)
	if err != nil {
		r.serveStorageError(w, err)
		return
	}

	var cal *ical.Calendar
	if rules {
		cal = RuleCalendar(r.engine, habits, goals, from)
	} else {
		cal = Calendar(r.engine, habits, goals, from, to)
	}

	w.Header().Set(HeaderContentType, MimeTypeCalendar)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		r.logger.Error("failed to encode calendar",
			"user", userID,
			"error", err)
	}
}

func (r *Router) handleOccurrencesXML(w http.ResponseWriter, req *http.Request, userID string) {
	from, to, err := r.window(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	habits, goals, err := r.loadUser(req, userID)
	if err != nil {
		r.serveStorageError(w, err)
		return
	}

	var occs []schedule.Occurrence
	for _, n := range expandVisible(r.engine, habits, goals, from, to) {
		occs = append(occs, n.occ)
	}

	w.Header().Set(HeaderContentType, MimeTypeXML)
	if err := WriteOccurrencesXML(w, occs); err != nil {
		r.logger.Error("failed to write occurrences",
			"user", userID,
			"error", err)
	}
}

type seriesPoint struct {
	T time.Time `json:"t"`
	V float64   `json:"v"`
}

type plannedResponse struct {
	HabitID     string        `json:"habitId"`
	Unit        string        `json:"unit,omitempty"`
	DailyTarget float64       `json:"dailyTarget"`
	Planned     []seriesPoint `json:"planned"`
	Actual      []seriesPoint `json:"actual"`
}

func (r *Router) handlePlanned(w http.ResponseWriter, req *http.Request, userID, habitID string) {
	from, to, err := r.window(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	habit, err := r.storage.GetHabit(req.Context(), userID, habitID)
	if err != nil {
		r.serveStorageError(w, err)
		return
	}

	activities, err := r.storage.ListActivities(req.Context(), userID, habitID,
		&store.ActivityListOptions{Start: &from, End: &to})
	if err != nil {
		r.serveStorageError(w, err)
		return
	}

	resp := plannedResponse{
		HabitID:     habit.ID,
		Unit:        habit.WorkloadUnit,
		DailyTarget: habit.DailyTarget(),
		Planned:     toSeries(r.projector.Project(habit, from, to)),
		Actual:      toSeries(projection.ActualSeries(activities, from, to)),
	}

	w.Header().Set(HeaderContentType, MimeTypeJSON)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		r.logger.Error("failed to encode planned series",
			"user", userID,
			"habit", habitID,
			"error", err)
	}
}

func toSeries(points []projection.Point) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{T: p.Timestamp, V: p.Cumulative})
	}
	return out
}

func (r *Router) serveStorageError(w http.ResponseWriter, err error) {
	var serr *store.Error
	if errors.As(err, &serr) && serr.Type == store.ErrNotFound {
		http.Error(w, serr.Message, http.StatusNotFound)
		return
	}
	r.logger.Error("storage error", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
