package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (direct database
// plus the ingest pipeline) and HTTPClient (remote via REST API) both
// satisfy this interface.
type DataSource interface {
	LogWorkout(ctx context.Context, req ingest.Request) (*ingest.Result, error)
	ListPlans(ctx context.Context, userID int) ([]models.Plan, error)
	ExercisesForDay(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]models.Exercise, error)
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error)
	QueryExerciseHistory(ctx context.Context, nameFilter string, start, end time.Time, userID int) ([]storage.LogDetail, error)
	GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.VolumePeriod, error)
}

// Local is the in-process DataSource: reads hit the database directly and
// log_workout runs the full ingest pipeline.
type Local struct {
	*storage.DB
	Ingest *ingest.Service
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

func (l *Local) LogWorkout(ctx context.Context, req ingest.Request) (*ingest.Result, error) {
	return l.Ingest.Log(ctx, req)
}
