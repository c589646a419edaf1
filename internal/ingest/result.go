package ingest

import (
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// Item outcome statuses. Skips are normal output, never errors.
const (
	StatusLogged        = "logged"
	StatusUnknown       = "skipped_unknown_exercise"
	StatusAlreadyLogged = "skipped_already_logged_today"
)

// ItemOutcome reports what happened to one parsed item, in input order.
type ItemOutcome struct {
	Status    string       `json:"status"`
	Exercise  string       `json:"exercise,omitempty"`
	Input     string       `json:"input,omitempty"`
	Sets      *int         `json:"sets,omitempty"`
	Reps      *models.Reps `json:"reps,omitempty"`
	WeightLbs *float64     `json:"weight_lbs,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// Result is the outcome of one wholly committed ingest call. The LLM
// identity is the session's pinned one, which may differ from the backend
// that parsed this call's text when the session already existed.
type Result struct {
	SessionID     uuid.UUID     `json:"sessionId"`
	SessionExists bool          `json:"sessionExists"`
	Date          string        `json:"date"`
	DayOfWeek     int           `json:"day_of_week"`
	LLMProvider   string        `json:"llm_provider"`
	LLMModel      string        `json:"llm_model"`
	Results       []ItemOutcome `json:"results"`
}
