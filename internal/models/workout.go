package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Plan is a named workout program containing day-scheduled exercises.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Exercise is a canonical movement scheduled for one ISO day-of-week
// (1=Monday..7=Sunday). An exercise appearing on multiple days is stored as
// multiple rows. Aliases is a JSON-array-encoded string column.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Name      string    `json:"name"`
	DayOfWeek int       `json:"day_of_week"`
	Aliases   string    `json:"aliases"`
	Position  int       `json:"position"`
}

// AliasList decodes the JSON-encoded aliases column. A malformed or empty
// column yields no aliases rather than an error; alias matching is advisory.
func (e Exercise) AliasList() []string {
	if e.Aliases == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(e.Aliases), &out); err != nil {
		return nil
	}
	return out
}

// Session is one workout occasion for a (plan, calendar date) pair. At most
// one session exists per pair; LLMProvider/LLMModel record the backend that
// parsed the first batch logged into it and never change afterwards.
type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	PlanID      uuid.UUID `json:"plan_id"`
	SessionDate time.Time `json:"session_date"`
	DayOfWeek   int       `json:"day_of_week"`
	LLMProvider string    `json:"llm_provider"`
	LLMModel    string    `json:"llm_model"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExerciseLog is one recorded performance of one exercise within a session.
// LogDate duplicates the owning session's date so the database can enforce
// one log per (exercise, date) across all sessions on that date.
type ExerciseLog struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	LogDate    time.Time `json:"log_date"`
	Sets       *int      `json:"sets,omitempty"`
	Reps       Reps      `json:"reps,omitempty"`
	WeightLbs  *float64  `json:"weight_lbs,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DateOnly is the calendar-date layout used throughout the API.
const DateOnly = "2006-01-02"

// ISOWeekday converts a date to the ISO day-of-week (1=Monday..7=Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
