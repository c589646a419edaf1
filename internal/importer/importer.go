package importer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

const kgToLbs = 2.20462

// Stats tracks import progress.
type Stats struct {
	SessionsFound    int
	SessionsImported int
	LogsInserted     int
	LogsDuplicated   int

	UnknownExercises []string
}

// Importer replays CSV sessions into the database. Each session goes
// through the same batch write as live logging, so re-running an import is
// safe: existing (exercise, date) pairs are skipped.
type Importer struct {
	db     *storage.DB
	log    *slog.Logger
	planID uuid.UUID
	dryRun bool
	stats  Stats
}

// New creates an Importer writing against the given plan.
func New(db *storage.DB, planID uuid.UUID, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, planID: planID, log: log, dryRun: dryRun}
}

// ImportFile parses one CSV export and imports every session in it.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return &imp.stats, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sessions, err := ParseCSV(f)
	if err != nil {
		return &imp.stats, fmt.Errorf("parsing %s: %w", path, err)
	}
	imp.stats.SessionsFound = len(sessions)

	for _, session := range sessions {
		if err := imp.importSession(ctx, session); err != nil {
			return &imp.stats, fmt.Errorf("session %q (%s): %w",
				session.Name, session.Date.Format(models.DateOnly), err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importSession(ctx context.Context, session CSVSession) error {
	dayOfWeek := models.ISOWeekday(session.Date)

	catalog, err := imp.db.ExercisesForDay(ctx, imp.planID, dayOfWeek)
	if err != nil {
		return fmt.Errorf("loading day %d catalog: %w", dayOfWeek, err)
	}

	var items []storage.BatchItem
	for _, ex := range session.Exercises {
		item := buildItem(ex, catalog)
		if item.Exercise == nil {
			imp.stats.UnknownExercises = append(imp.stats.UnknownExercises, ex.Name)
			imp.log.Warn("unknown exercise in export", "name", ex.Name, "date", session.Date.Format(models.DateOnly))
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}

	if imp.dryRun {
		for _, item := range items {
			if item.Exercise != nil {
				imp.stats.LogsInserted++
			}
		}
		imp.stats.SessionsImported++
		return nil
	}

	res, err := imp.db.LogBatch(ctx, storage.BatchRequest{
		UserID:      1,
		PlanID:      imp.planID,
		Date:        midnight(session.Date),
		DayOfWeek:   dayOfWeek,
		LLMProvider: "import",
		LLMModel:    "csv",
		Items:       items,
	})
	if err != nil {
		return err
	}

	imp.stats.SessionsImported++
	for _, outcome := range res.Outcomes {
		switch {
		case outcome.Duplicate:
			imp.stats.LogsDuplicated++
		case outcome.Logged != nil:
			imp.stats.LogsInserted++
		}
	}
	return nil
}

// buildItem converts one exported exercise to a batch item. Warmup sets are
// excluded; bodyweight-plus loads record the added pounds only.
func buildItem(ex CSVExercise, catalog []models.Exercise) storage.BatchItem {
	var working []CSVSet
	for _, set := range ex.Sets {
		if !set.IsWarmup {
			working = append(working, set)
		}
	}

	item := storage.BatchItem{
		Input:    ex.Name,
		Exercise: ingest.MatchExercise(ex.Name, catalog),
	}
	if len(working) == 0 {
		return item
	}

	n := len(working)
	item.Sets = &n

	reps := make([]int, n)
	uniform := true
	for i, set := range working {
		reps[i] = set.Reps
		if set.Reps != working[0].Reps {
			uniform = false
		}
	}
	if uniform {
		item.Reps = models.RepsEach(working[0].Reps)
	} else {
		item.Reps = models.RepsPerSet(reps)
	}

	// Heaviest working set, converted to pounds.
	maxKg := 0.0
	bodyweight := false
	for _, set := range working {
		if set.WeightKg > maxKg {
			maxKg = set.WeightKg
		}
		if set.IsBodyweightPlus {
			bodyweight = true
		}
	}
	if maxKg > 0 {
		lbs := math.Round(maxKg*kgToLbs*10) / 10
		item.WeightLbs = &lbs
	}
	if bodyweight && maxKg == 0 {
		item.WeightLbs = nil
	}
	return item
}

// midnight drops the export's time of day; logs key on the calendar date.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
