// Package ingest orchestrates the natural-language logging pipeline: parse
// the text with a language-model backend, normalize each mention against
// the day's exercise catalog, and commit the batch in one transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/llm"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

var (
	// ErrParseFailed reports an unusable backend reply or a backend
	// failure. Nothing was written.
	ErrParseFailed = errors.New("could not parse workout text")
	// ErrNoItems reports text the backend parsed to zero exercises.
	ErrNoItems = errors.New("no exercises found in text")
)

// store is the slice of the storage layer the pipeline touches.
type store interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	DefaultPlan(ctx context.Context, userID int) (*models.Plan, error)
	ExercisesForDay(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]models.Exercise, error)
	LogBatch(ctx context.Context, req storage.BatchRequest) (*storage.BatchResult, error)
}

// textParser turns free text into structured items given the day's
// canonical exercise names.
type textParser interface {
	Provider() string
	Model() string
	Parse(ctx context.Context, text string, exercises []string) ([]models.ParsedItem, error)
}

// Service runs the ingest pipeline for the instance's single user.
type Service struct {
	db            store
	parser        textParser
	log           *slog.Logger
	defaultPlanID uuid.UUID
	userID        int
}

// NewService wires the pipeline. parser may be nil when no backend is
// configured; Log then fails with llm.ErrNotConfigured. defaultPlanID may
// be uuid.Nil, in which case the oldest plan is used.
func NewService(db store, parser textParser, log *slog.Logger, defaultPlanID uuid.UUID) *Service {
	return &Service{
		db:            db,
		parser:        parser,
		log:           log,
		defaultPlanID: defaultPlanID,
		userID:        1,
	}
}

// Request is one ingest call. PlanID and Date are optional: the plan falls
// back to the configured default and then the oldest plan, the date to
// today in server-local time.
type Request struct {
	Text   string     `json:"text"`
	PlanID *uuid.UUID `json:"plan_id,omitempty"`
	Date   string     `json:"date,omitempty"`
}

// Log runs the full pipeline. The backend call happens before the write
// transaction opens, so a slow model never holds database locks. Skipped
// items are reported in the result, not as errors.
func (s *Service) Log(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrNoItems
	}
	if s.parser == nil {
		return nil, llm.ErrNotConfigured
	}

	plan, err := s.resolvePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	date, err := resolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	dayOfWeek := models.ISOWeekday(date)

	catalog, err := s.db.ExercisesForDay(ctx, plan.ID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("loading day %d catalog: %w", dayOfWeek, err)
	}
	names := make([]string, len(catalog))
	for i, ex := range catalog {
		names[i] = ex.Name
	}

	parsed, err := s.parser.Parse(ctx, req.Text, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if len(parsed) == 0 {
		return nil, ErrNoItems
	}

	batch := storage.BatchRequest{
		UserID:      s.userID,
		PlanID:      plan.ID,
		Date:        date,
		DayOfWeek:   dayOfWeek,
		LLMProvider: s.parser.Provider(),
		LLMModel:    s.parser.Model(),
		Items:       make([]storage.BatchItem, len(parsed)),
	}
	for i, item := range parsed {
		batch.Items[i] = storage.BatchItem{
			Input:     item.Input,
			Exercise:  matchItem(item, catalog),
			Sets:      item.Sets,
			Reps:      item.Reps,
			WeightLbs: item.WeightLbs,
			Notes:     item.Notes,
		}
	}

	res, err := s.db.LogBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	s.log.Info("ingest committed",
		"session_id", res.Session.ID,
		"created", res.Created,
		"items", len(parsed),
	)

	return buildResult(res, batch.Items), nil
}

// resolvePlan picks the plan for this call: explicit request, configured
// default, then the instance's oldest plan.
func (s *Service) resolvePlan(ctx context.Context, explicit *uuid.UUID) (*models.Plan, error) {
	switch {
	case explicit != nil:
		return s.db.GetPlan(ctx, *explicit)
	case s.defaultPlanID != uuid.Nil:
		return s.db.GetPlan(ctx, s.defaultPlanID)
	default:
		return s.db.DefaultPlan(ctx, s.userID)
	}
}

func resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return models.ParseDate(raw)
}

// matchItem resolves one parsed item against the catalog: the model's
// advisory match first, then the user's original wording.
func matchItem(item models.ParsedItem, catalog []models.Exercise) *models.Exercise {
	if item.Exercise != "" {
		if ex := MatchExercise(item.Exercise, catalog); ex != nil {
			return ex
		}
	}
	return MatchExercise(item.Input, catalog)
}

// buildResult maps storage outcomes to the wire shape. The reported LLM
// identity is the session's pinned one, not necessarily this call's
// backend.
func buildResult(res *storage.BatchResult, items []storage.BatchItem) *Result {
	out := &Result{
		SessionID:     res.Session.ID,
		SessionExists: !res.Created,
		Date:          res.Session.SessionDate.Format(models.DateOnly),
		DayOfWeek:     res.Session.DayOfWeek,
		LLMProvider:   res.Session.LLMProvider,
		LLMModel:      res.Session.LLMModel,
		Results:       make([]ItemOutcome, len(items)),
	}
	for i, item := range items {
		outcome := res.Outcomes[i]
		switch {
		case outcome.Unknown:
			out.Results[i] = ItemOutcome{
				Status: StatusUnknown,
				Input:  item.Input,
			}
		case outcome.Duplicate:
			out.Results[i] = ItemOutcome{
				Status:   StatusAlreadyLogged,
				Exercise: item.Exercise.Name,
				Message:  fmt.Sprintf("%s already logged for this date", item.Exercise.Name),
			}
		default:
			logged := outcome.Logged
			o := ItemOutcome{
				Status:    StatusLogged,
				Exercise:  item.Exercise.Name,
				Input:     item.Input,
				Sets:      logged.Sets,
				WeightLbs: logged.WeightLbs,
				Notes:     logged.Notes,
			}
			if !logged.Reps.IsZero() {
				r := logged.Reps
				o.Reps = &r
			}
			out.Results[i] = o
		}
	}
	return out
}
