package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meltforce/liftlog/internal/models"
)

// BatchRequest is one ingest call's transactional write: resolve the session
// for (plan, date), then per item check the same-day duplicate rule and
// insert. The whole sequence runs in one serializable transaction.
type BatchRequest struct {
	UserID      int
	PlanID      uuid.UUID
	Date        time.Time
	DayOfWeek   int
	LLMProvider string
	LLMModel    string
	Items       []BatchItem
}

// BatchItem is one already-normalized parsed item. Exercise is nil when the
// catalog had no match; such items are recorded as skips, never inserted.
type BatchItem struct {
	Input     string
	Exercise  *models.Exercise
	Sets      *int
	Reps      models.Reps
	WeightLbs *float64
	Notes     string
}

// BatchItemOutcome mirrors the request items by position.
type BatchItemOutcome struct {
	Logged    *models.ExerciseLog
	Duplicate bool
	Unknown   bool
}

// BatchResult reports the resolved session and per-item outcomes.
type BatchResult struct {
	Session  models.Session
	Created  bool
	Outcomes []BatchItemOutcome
}

// errSessionRace reports that a concurrent ingest created the session for
// (plan, date) after this transaction's snapshot was taken. The loser's
// ON CONFLICT DO NOTHING inserts no row, and its fallback SELECT runs
// against the stale snapshot and sees nothing either. Only a fresh
// transaction can observe the winner's row.
var errSessionRace = errors.New("session created by concurrent ingest")

const maxBatchAttempts = 3

// LogBatch runs the find-or-create-session and duplicate-check-then-insert
// sequence in a single serializable transaction. Two concurrent calls for
// the same (plan, date) resolve to one session row, and two concurrent
// attempts to log the same exercise on the same date yield exactly one
// inserted row. Any database failure rolls back the entire batch.
//
// A batch that loses a race with a concurrent ingest, either on the session
// insert or as a serialization failure at commit, is retried in a fresh
// transaction whose snapshot sees the winner's committed rows, so the loser
// reuses the winner's session and reports duplicates as skips.
func (db *DB) LogBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	var result *BatchResult
	var err error
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		result, err = db.logBatchOnce(ctx, req)
		if err == nil || !retryableBatchErr(err) {
			return result, err
		}
	}
	return nil, fmt.Errorf("log batch unresolved after %d attempts: %w", maxBatchAttempts, err)
}

// retryableBatchErr reports whether a failed attempt should rerun in a new
// transaction: the stale-snapshot session race, or a serialization failure
// (SQLSTATE 40001) raised by the serializable isolation level.
func retryableBatchErr(err error) bool {
	if errors.Is(err, errSessionRace) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func (db *DB) logBatchOnce(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, created, err := findOrCreateSession(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Session:  session,
		Created:  created,
		Outcomes: make([]BatchItemOutcome, len(req.Items)),
	}

	for i, item := range req.Items {
		if item.Exercise == nil {
			result.Outcomes[i] = BatchItemOutcome{Unknown: true}
			continue
		}

		// Duplicate scope is (exercise, calendar date) across ALL sessions
		// for that date, not just the one being written to.
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM exercise_logs WHERE exercise_id = $1 AND log_date = $2)`,
			item.Exercise.ID, req.Date).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking duplicate log: %w", err)
		}
		if exists {
			result.Outcomes[i] = BatchItemOutcome{Duplicate: true}
			continue
		}

		logRow := models.ExerciseLog{
			ID:         uuid.New(),
			SessionID:  session.ID,
			ExerciseID: item.Exercise.ID,
			LogDate:    req.Date,
			Sets:       item.Sets,
			Reps:       item.Reps,
			WeightLbs:  item.WeightLbs,
			Notes:      item.Notes,
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO exercise_logs (id, session_id, exercise_id, log_date, sets, reps, weight_lbs, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (exercise_id, log_date) DO NOTHING`,
			logRow.ID, logRow.SessionID, logRow.ExerciseID, logRow.LogDate,
			logRow.Sets, logRow.Reps.String(), logRow.WeightLbs, logRow.Notes)
		if err != nil {
			return nil, fmt.Errorf("inserting exercise log: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Lost a race with a concurrent ingest: treat as duplicate.
			result.Outcomes[i] = BatchItemOutcome{Duplicate: true}
			continue
		}
		result.Outcomes[i] = BatchItemOutcome{Logged: &logRow}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return result, nil
}

// findOrCreateSession resolves the unique session for (plan, date). A newly
// created session records this call's LLM identity; an existing session
// keeps the identity recorded at creation, which is never overwritten.
func findOrCreateSession(ctx context.Context, tx pgx.Tx, req BatchRequest) (models.Session, bool, error) {
	session := models.Session{
		ID:          uuid.New(),
		UserID:      req.UserID,
		PlanID:      req.PlanID,
		SessionDate: req.Date,
		DayOfWeek:   req.DayOfWeek,
		LLMProvider: req.LLMProvider,
		LLMModel:    req.LLMModel,
	}

	err := tx.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, plan_id, session_date, day_of_week, llm_provider, llm_model)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (plan_id, session_date) DO NOTHING
		 RETURNING created_at`,
		session.ID, session.UserID, session.PlanID, session.SessionDate,
		session.DayOfWeek, session.LLMProvider, session.LLMModel).
		Scan(&session.CreatedAt)
	if err == nil {
		return session, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, false, fmt.Errorf("creating session: %w", err)
	}

	// Conflict: another ingest already created the session for this date.
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, plan_id, session_date, day_of_week, llm_provider, llm_model, created_at
		 FROM sessions WHERE plan_id = $1 AND session_date = $2`,
		req.PlanID, req.Date).
		Scan(&session.ID, &session.UserID, &session.PlanID, &session.SessionDate,
			&session.DayOfWeek, &session.LLMProvider, &session.LLMModel, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflicting row committed after our snapshot; it exists but
		// this transaction cannot see it. Caller retries in a fresh one.
		return models.Session{}, false, errSessionRace
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("loading existing session: %w", err)
	}
	return session, false, nil
}

// FindSessionByDate returns the session for (plan, date), or ErrNotFound.
func (db *DB) FindSessionByDate(ctx context.Context, planID uuid.UUID, date time.Time) (*models.Session, error) {
	var s models.Session
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, plan_id, session_date, day_of_week, llm_provider, llm_model, created_at
		 FROM sessions WHERE plan_id = $1 AND session_date = $2`,
		planID, date).
		Scan(&s.ID, &s.UserID, &s.PlanID, &s.SessionDate, &s.DayOfWeek,
			&s.LLMProvider, &s.LLMModel, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

// QuerySessions retrieves sessions in a date range, newest first.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, plan_id, session_date, day_of_week, llm_provider, llm_model, created_at
		 FROM sessions
		 WHERE session_date >= $1 AND session_date < $2 AND user_id = $3
		 ORDER BY session_date DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.SessionDate, &s.DayOfWeek,
			&s.LLMProvider, &s.LLMModel, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// SessionDetail is a session with its logs and resolved exercise names.
type SessionDetail struct {
	models.Session
	Logs []LogDetail `json:"logs"`
}

// GetSession retrieves a session by ID with all its logs.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	var s models.Session
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, plan_id, session_date, day_of_week, llm_provider, llm_model, created_at
		 FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.PlanID, &s.SessionDate, &s.DayOfWeek,
			&s.LLMProvider, &s.LLMModel, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	logs, err := db.querySessionLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: s, Logs: logs}, nil
}

// DeleteSession removes a session and, via cascade, its logs.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
