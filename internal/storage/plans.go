package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ListPlans retrieves all plans for a user, oldest first.
func (db *DB) ListPlans(ctx context.Context, userID int) ([]models.Plan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM plans
		 WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var result []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetPlan retrieves a plan by ID.
func (db *DB) GetPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var p models.Plan
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM plans WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}
	return &p, nil
}

// DefaultPlan returns the user's oldest plan. Used when an ingest request
// omits the plan ID and no default is configured.
func (db *DB) DefaultPlan(ctx context.Context, userID int) (*models.Plan, error) {
	var p models.Plan
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM plans
		 WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying default plan: %w", err)
	}
	return &p, nil
}

// ExercisesForDay returns the catalog of exercises scheduled for a plan on
// an ISO day-of-week (1=Monday..7=Sunday), in seed insertion order. An
// out-of-range day or unknown plan yields an empty list, not an error;
// callers handle zero candidates (every parsed item becomes unknown).
func (db *DB) ExercisesForDay(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, plan_id, name, day_of_week, aliases, position
		 FROM exercises
		 WHERE plan_id = $1 AND day_of_week = $2
		 ORDER BY position, id`,
		planID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.PlanID, &e.Name, &e.DayOfWeek, &e.Aliases, &e.Position); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
