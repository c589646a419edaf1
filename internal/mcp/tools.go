package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
)

// defaultDateRange returns start/end defaulting to the last `days` days.
func defaultDateRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = models.ParseDate(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = end.Add(24 * time.Hour)
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = models.ParseDate(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

// --- Tool definitions ---

var toolLogWorkout = mcp.NewTool("log_workout",
	mcp.WithDescription("Log a workout from a plain-language description, e.g. '3x8 bench at 185, curls 12, 10, 8 at 30'. Exercises are matched against the training plan's catalog for the day; an exercise already logged on that date is skipped, never duplicated."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The workout description")),
	mcp.WithString("date", mcp.Description("Date to log against (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("plan_id", mcp.Description("Training plan UUID. Defaults to the configured plan.")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List workout sessions in a date range, newest first. Each session records its date, plan day, and the language model that parsed it."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetSessionLogs = mcp.NewTool("get_session_logs",
	mcp.WithDescription("Get one session with all its exercise logs (sets, reps, weight, notes)."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID from get_sessions")),
)

var toolGetExerciseCatalog = mcp.NewTool("get_exercise_catalog",
	mcp.WithDescription("List the exercises scheduled for a day of the week on a training plan, with their aliases."),
	mcp.WithString("plan_id", mcp.Description("Training plan UUID. Defaults to the oldest plan.")),
	mcp.WithNumber("day", mcp.Description("ISO day of week (1=Monday..7=Sunday). Defaults to today.")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("All logs for exercises matching a name filter, oldest first. Useful for tracking progression on a lift."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name filter (partial match, e.g. 'bench')")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to today.")),
)

var toolGetVolumeSummary = mcp.NewTool("get_volume_summary",
	mcp.WithDescription("Aggregated training volume per period: session count, total sets, total reps, and tonnage in pounds."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to today.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 week", "1 month")),
)

// --- Tool handlers ---

func (h *handlers) logWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	ingestReq := ingest.Request{
		Text: text,
		Date: req.GetString("date", ""),
	}
	if planStr := req.GetString("plan_id", ""); planStr != "" {
		planID, err := uuid.Parse(planStr)
		if err != nil {
			return mcp.NewToolResultError("invalid plan_id: " + err.Error()), nil
		}
		ingestReq.PlanID = &planID
	}

	result, err := h.ds.LogWorkout(ctx, ingestReq)
	if err != nil {
		h.log.Error("mcp log_workout", "error", err)
		return mcp.NewToolResultError("logging failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(result)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.QuerySessions(ctx, start, end, 1)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getSessionLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}

	detail, err := h.ds.GetSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getExerciseCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var planID uuid.UUID
	if planStr := req.GetString("plan_id", ""); planStr != "" {
		var err error
		planID, err = uuid.Parse(planStr)
		if err != nil {
			return mcp.NewToolResultError("invalid plan_id: " + err.Error()), nil
		}
	} else {
		plans, err := h.ds.ListPlans(ctx, 1)
		if err != nil {
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if len(plans) == 0 {
			return mcp.NewToolResultError("no training plans configured"), nil
		}
		planID = plans[0].ID
	}

	day := req.GetInt("day", models.ISOWeekday(time.Now()))
	if day < 1 || day > 7 {
		return mcp.NewToolResultError("day must be 1-7"), nil
	}

	exercises, err := h.ds.ExercisesForDay(ctx, planID, day)
	if err != nil {
		h.log.Error("mcp get_exercise_catalog", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	logs, err := h.ds.QueryExerciseHistory(ctx, exercise, start, end, 1)
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getVolumeSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""), 182)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "1 week")
	periods, err := h.ds.GetVolumeSummary(ctx, start, end, bucket, 1)
	if err != nil {
		h.log.Error("mcp get_volume_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}
