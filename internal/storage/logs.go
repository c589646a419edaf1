package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// LogDetail is an exercise log joined with its exercise's canonical name.
type LogDetail struct {
	models.ExerciseLog
	ExerciseName string `json:"exercise"`
}

func (db *DB) querySessionLogs(ctx context.Context, sessionID uuid.UUID) ([]LogDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT l.id, l.session_id, l.exercise_id, l.log_date, l.sets, l.reps, l.weight_lbs, l.notes, l.created_at, e.name
		 FROM exercise_logs l
		 JOIN exercises e ON e.id = l.exercise_id
		 WHERE l.session_id = $1
		 ORDER BY l.created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()
	return scanLogRows(rows)
}

// GetLog retrieves a single exercise log by ID.
func (db *DB) GetLog(ctx context.Context, id uuid.UUID) (*LogDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT l.id, l.session_id, l.exercise_id, l.log_date, l.sets, l.reps, l.weight_lbs, l.notes, l.created_at, e.name
		 FROM exercise_logs l
		 JOIN exercises e ON e.id = l.exercise_id
		 WHERE l.id = $1`, id)

	var d LogDetail
	var repsStr string
	err := row.Scan(&d.ID, &d.SessionID, &d.ExerciseID, &d.LogDate, &d.Sets,
		&repsStr, &d.WeightLbs, &d.Notes, &d.CreatedAt, &d.ExerciseName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying log: %w", err)
	}
	if d.Reps, err = models.ParseReps(repsStr); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateLog changes a log's performance fields. The owning session and
// exercise are immutable after creation.
func (db *DB) UpdateLog(ctx context.Context, id uuid.UUID, sets *int, reps models.Reps, weightLbs *float64, notes string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercise_logs SET sets = $2, reps = $3, weight_lbs = $4, notes = $5 WHERE id = $1`,
		id, sets, reps.String(), weightLbs, notes)
	if err != nil {
		return fmt.Errorf("updating log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLog removes a single exercise log.
func (db *DB) DeleteLog(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercise_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryExerciseHistory returns all logs for exercises whose canonical name
// contains the filter (case-insensitive), oldest first. Used by the MCP
// progression tool.
func (db *DB) QueryExerciseHistory(ctx context.Context, nameFilter string, start, end time.Time, userID int) ([]LogDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT l.id, l.session_id, l.exercise_id, l.log_date, l.sets, l.reps, l.weight_lbs, l.notes, l.created_at, e.name
		 FROM exercise_logs l
		 JOIN exercises e ON e.id = l.exercise_id
		 JOIN sessions s ON s.id = l.session_id
		 WHERE e.name ILIKE '%' || $1 || '%'
		   AND l.log_date >= $2 AND l.log_date < $3
		   AND s.user_id = $4
		 ORDER BY l.log_date ASC`,
		nameFilter, start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()
	return scanLogRows(rows)
}

func scanLogRows(rows pgx.Rows) ([]LogDetail, error) {
	var result []LogDetail
	for rows.Next() {
		var d LogDetail
		var repsStr string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.ExerciseID, &d.LogDate, &d.Sets,
			&repsStr, &d.WeightLbs, &d.Notes, &d.CreatedAt, &d.ExerciseName); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		reps, err := models.ParseReps(repsStr)
		if err != nil {
			return nil, err
		}
		d.Reps = reps
		result = append(result, d)
	}
	return result, rows.Err()
}
