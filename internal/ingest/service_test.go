package ingest

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/llm"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

type fakeStore struct {
	plan    models.Plan
	catalog []models.Exercise

	gotBatch   *storage.BatchRequest
	batchRes   *storage.BatchResult
	batchErr   error
	gotPlanID  uuid.UUID
	defaulted  bool
	getPlanErr error
}

func (f *fakeStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	f.gotPlanID = id
	if f.getPlanErr != nil {
		return nil, f.getPlanErr
	}
	return &f.plan, nil
}

func (f *fakeStore) DefaultPlan(ctx context.Context, userID int) (*models.Plan, error) {
	f.defaulted = true
	return &f.plan, nil
}

func (f *fakeStore) ExercisesForDay(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]models.Exercise, error) {
	return f.catalog, nil
}

func (f *fakeStore) LogBatch(ctx context.Context, req storage.BatchRequest) (*storage.BatchResult, error) {
	f.gotBatch = &req
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchRes, nil
}

type fakeParser struct {
	items []models.ParsedItem
	err   error

	gotText  string
	gotNames []string
}

func (f *fakeParser) Provider() string { return "openai" }
func (f *fakeParser) Model() string    { return "gpt-4o-mini" }

func (f *fakeParser) Parse(ctx context.Context, text string, exercises []string) ([]models.ParsedItem, error) {
	f.gotText = text
	f.gotNames = exercises
	return f.items, f.err
}

func testService(store *fakeStore, parser textParser) *Service {
	return NewService(store, parser, slog.New(slog.DiscardHandler), uuid.Nil)
}

func batchResultFor(store *fakeStore, created bool, outcomes []storage.BatchItemOutcome) *storage.BatchResult {
	return &storage.BatchResult{
		Session: models.Session{
			ID:          uuid.New(),
			UserID:      1,
			PlanID:      store.plan.ID,
			SessionDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			DayOfWeek:   1,
			LLMProvider: "openai",
			LLMModel:    "gpt-4o-mini",
		},
		Created:  created,
		Outcomes: outcomes,
	}
}

func TestLogHappyPath(t *testing.T) {
	sets := 3
	store := &fakeStore{
		plan: models.Plan{ID: uuid.New(), UserID: 1, Name: "PPL"},
		catalog: []models.Exercise{
			{ID: uuid.New(), Name: "Bench Press", Aliases: "[]"},
			{ID: uuid.New(), Name: "Squats", Aliases: "[]"},
		},
	}
	parser := &fakeParser{items: []models.ParsedItem{
		{Input: "3x8 bench", Exercise: "Bench Press", Sets: &sets, Reps: models.RepsEach(8)},
	}}
	weight := 185.0
	store.batchRes = batchResultFor(store, true, []storage.BatchItemOutcome{
		{Logged: &models.ExerciseLog{
			ID:        uuid.New(),
			Sets:      &sets,
			Reps:      models.RepsEach(8),
			WeightLbs: &weight,
		}},
	})

	svc := testService(store, parser)
	res, err := svc.Log(context.Background(), Request{Text: "3x8 bench at 185", Date: "2026-01-05"})
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if res.SessionExists {
		t.Error("SessionExists = true for a created session")
	}
	if res.Date != "2026-01-05" {
		t.Errorf("Date = %q, want 2026-01-05", res.Date)
	}
	if res.DayOfWeek != 1 {
		t.Errorf("DayOfWeek = %d, want 1", res.DayOfWeek)
	}
	if res.LLMProvider != "openai" || res.LLMModel != "gpt-4o-mini" {
		t.Errorf("LLM identity = %s/%s, want openai/gpt-4o-mini", res.LLMProvider, res.LLMModel)
	}
	if len(res.Results) != 1 {
		t.Fatalf("Results has %d entries, want 1", len(res.Results))
	}
	out := res.Results[0]
	if out.Status != StatusLogged {
		t.Errorf("Status = %q, want %q", out.Status, StatusLogged)
	}
	if out.Exercise != "Bench Press" {
		t.Errorf("Exercise = %q, want Bench Press", out.Exercise)
	}
	if out.Reps == nil || out.Reps.Each == nil || *out.Reps.Each != 8 {
		t.Errorf("Reps = %v, want scalar 8", out.Reps)
	}

	if len(parser.gotNames) != 2 || parser.gotNames[0] != "Bench Press" {
		t.Errorf("parser got names %v, want day catalog names", parser.gotNames)
	}
	if store.gotBatch.LLMProvider != "openai" {
		t.Errorf("batch LLMProvider = %q, want openai", store.gotBatch.LLMProvider)
	}
	if !store.defaulted {
		t.Error("plan was not resolved through DefaultPlan")
	}
}

func TestLogSessionIdentityPinned(t *testing.T) {
	store := &fakeStore{
		plan:    models.Plan{ID: uuid.New()},
		catalog: []models.Exercise{{ID: uuid.New(), Name: "Squats", Aliases: "[]"}},
	}
	parser := &fakeParser{items: []models.ParsedItem{{Input: "squats", Exercise: "Squats"}}}
	res := batchResultFor(store, false, []storage.BatchItemOutcome{
		{Logged: &models.ExerciseLog{ID: uuid.New()}},
	})
	// The existing session was created by a different backend.
	res.Session.LLMProvider = "local"
	res.Session.LLMModel = "llama3.1"
	store.batchRes = res

	svc := testService(store, parser)
	got, err := svc.Log(context.Background(), Request{Text: "squats", Date: "2026-01-05"})
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if !got.SessionExists {
		t.Error("SessionExists = false for an existing session")
	}
	if got.LLMProvider != "local" || got.LLMModel != "llama3.1" {
		t.Errorf("LLM identity = %s/%s, want the session's pinned local/llama3.1",
			got.LLMProvider, got.LLMModel)
	}
}

func TestLogUnknownAndDuplicateOutcomes(t *testing.T) {
	store := &fakeStore{
		plan:    models.Plan{ID: uuid.New()},
		catalog: []models.Exercise{{ID: uuid.New(), Name: "Bench Press", Aliases: "[]"}},
	}
	parser := &fakeParser{items: []models.ParsedItem{
		{Input: "zercher squat", Exercise: "zercher squat"},
		{Input: "bench", Exercise: "Bench Press"},
	}}
	store.batchRes = batchResultFor(store, false, []storage.BatchItemOutcome{
		{Unknown: true},
		{Duplicate: true},
	})

	svc := testService(store, parser)
	res, err := svc.Log(context.Background(), Request{Text: "stuff", Date: "2026-01-05"})
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if res.Results[0].Status != StatusUnknown {
		t.Errorf("Results[0].Status = %q, want %q", res.Results[0].Status, StatusUnknown)
	}
	if res.Results[0].Input != "zercher squat" {
		t.Errorf("Results[0].Input = %q, want original text", res.Results[0].Input)
	}
	if res.Results[1].Status != StatusAlreadyLogged {
		t.Errorf("Results[1].Status = %q, want %q", res.Results[1].Status, StatusAlreadyLogged)
	}
	if res.Results[1].Exercise != "Bench Press" {
		t.Errorf("Results[1].Exercise = %q, want Bench Press", res.Results[1].Exercise)
	}

	// Unmatched items must reach storage with a nil exercise, not be
	// dropped from the batch.
	if store.gotBatch.Items[0].Exercise != nil {
		t.Error("unmatched item reached storage with a non-nil exercise")
	}
	if store.gotBatch.Items[1].Exercise == nil {
		t.Error("matched item reached storage with a nil exercise")
	}
}

func TestLogInputFallbackMatch(t *testing.T) {
	store := &fakeStore{
		plan:    models.Plan{ID: uuid.New()},
		catalog: []models.Exercise{{ID: uuid.New(), Name: "Tricep Pushdowns", Aliases: "[]"}},
	}
	// The model's advisory match is garbage but the raw wording matches.
	parser := &fakeParser{items: []models.ParsedItem{
		{Input: "pushdowns", Exercise: "cable press thing"},
	}}
	store.batchRes = batchResultFor(store, true, []storage.BatchItemOutcome{
		{Logged: &models.ExerciseLog{ID: uuid.New()}},
	})

	svc := testService(store, parser)
	if _, err := svc.Log(context.Background(), Request{Text: "pushdowns", Date: "2026-01-05"}); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	item := store.gotBatch.Items[0]
	if item.Exercise == nil || item.Exercise.Name != "Tricep Pushdowns" {
		t.Errorf("Exercise = %v, want input-fallback match Tricep Pushdowns", item.Exercise)
	}
}

func TestLogExplicitPlan(t *testing.T) {
	planID := uuid.New()
	store := &fakeStore{
		plan:    models.Plan{ID: planID},
		catalog: []models.Exercise{{ID: uuid.New(), Name: "Squats", Aliases: "[]"}},
	}
	parser := &fakeParser{items: []models.ParsedItem{{Input: "squats", Exercise: "Squats"}}}
	store.batchRes = batchResultFor(store, true, []storage.BatchItemOutcome{
		{Logged: &models.ExerciseLog{ID: uuid.New()}},
	})

	svc := testService(store, parser)
	if _, err := svc.Log(context.Background(), Request{Text: "squats", PlanID: &planID, Date: "2026-01-05"}); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if store.gotPlanID != planID {
		t.Errorf("resolved plan %s, want explicit %s", store.gotPlanID, planID)
	}
	if store.defaulted {
		t.Error("DefaultPlan called despite an explicit plan id")
	}
}

func TestLogErrors(t *testing.T) {
	store := &fakeStore{plan: models.Plan{ID: uuid.New()}}

	t.Run("empty text", func(t *testing.T) {
		svc := testService(store, &fakeParser{})
		if _, err := svc.Log(context.Background(), Request{Text: "   "}); !errors.Is(err, ErrNoItems) {
			t.Errorf("err = %v, want ErrNoItems", err)
		}
	})

	t.Run("no backend", func(t *testing.T) {
		svc := testService(store, nil)
		if _, err := svc.Log(context.Background(), Request{Text: "bench"}); !errors.Is(err, llm.ErrNotConfigured) {
			t.Errorf("err = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("parser failure", func(t *testing.T) {
		svc := testService(store, &fakeParser{err: errors.New("model refused")})
		if _, err := svc.Log(context.Background(), Request{Text: "bench"}); !errors.Is(err, ErrParseFailed) {
			t.Errorf("err = %v, want ErrParseFailed", err)
		}
	})

	t.Run("zero items", func(t *testing.T) {
		svc := testService(store, &fakeParser{items: []models.ParsedItem{}})
		if _, err := svc.Log(context.Background(), Request{Text: "rest day"}); !errors.Is(err, ErrNoItems) {
			t.Errorf("err = %v, want ErrNoItems", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		svc := testService(store, &fakeParser{items: []models.ParsedItem{{Input: "bench"}}})
		if _, err := svc.Log(context.Background(), Request{Text: "bench", Date: "Jan 5"}); err == nil {
			t.Error("Log accepted a malformed date")
		}
	})
}
