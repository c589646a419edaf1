package storage

import (
	"context"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// VolumePeriod aggregates training volume for one bucket (week or month).
type VolumePeriod struct {
	PeriodStart time.Time `json:"period_start"`
	Sessions    int       `json:"sessions"`
	TotalSets   int       `json:"total_sets"`
	TotalReps   int       `json:"total_reps"`
	TonnageLbs  float64   `json:"tonnage_lbs"`
}

// GetVolumeSummary aggregates set/rep/tonnage totals per period. Bucket is
// "1 week" or "1 month"; anything else falls back to weekly. Reps are stored
// as scalar-or-list text, so the rollup happens here rather than in SQL.
func (db *DB) GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]VolumePeriod, error) {
	logs, err := db.QueryExerciseHistory(ctx, "", start, end, userID)
	if err != nil {
		return nil, err
	}

	type agg struct {
		periodStart time.Time
		sessions    map[string]bool
		sets        int
		reps        int
		tonnage     float64
	}
	buckets := map[time.Time]*agg{}

	for _, l := range logs {
		ps := truncatePeriod(l.LogDate, bucket)
		a := buckets[ps]
		if a == nil {
			a = &agg{periodStart: ps, sessions: map[string]bool{}}
			buckets[ps] = a
		}
		a.sessions[l.SessionID.String()] = true

		sets, reps := countSetsReps(l.Sets, l.Reps)
		a.sets += sets
		a.reps += reps
		if l.WeightLbs != nil {
			a.tonnage += float64(reps) * *l.WeightLbs
		}
	}

	var result []VolumePeriod
	for _, a := range buckets {
		result = append(result, VolumePeriod{
			PeriodStart: a.periodStart,
			Sessions:    len(a.sessions),
			TotalSets:   a.sets,
			TotalReps:   a.reps,
			TonnageLbs:  a.tonnage,
		})
	}
	sortVolumePeriods(result)
	return result, nil
}

// countSetsReps expands the scalar-or-list reps representation into total
// sets and total reps. A per-set list carries its own set count; a scalar
// needs the sets column (default 1 set when absent).
func countSetsReps(sets *int, reps models.Reps) (int, int) {
	if reps.IsList() {
		total := 0
		for _, n := range reps.PerSet {
			total += n
		}
		return len(reps.PerSet), total
	}
	n := 1
	if sets != nil {
		n = *sets
	}
	if reps.Each == nil {
		return n, 0
	}
	return n, n * *reps.Each
}

func truncatePeriod(t time.Time, bucket string) time.Time {
	if bucket == "1 month" {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	// Weekly: truncate to the ISO week's Monday.
	offset := models.ISOWeekday(t) - 1
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

func sortVolumePeriods(periods []VolumePeriod) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})
}
