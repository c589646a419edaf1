package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/models"
)

func (h *handlers) todayCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	plans, err := h.ds.ListPlans(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, errors.New("no training plans configured")
	}

	now := time.Now()
	exercises, err := h.ds.ExercisesForDay(ctx, plans[0].ID, models.ISOWeekday(now))
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]any{
		"date":        now.Format(models.DateOnly),
		"day_of_week": models.ISOWeekday(now),
		"plan":        plans[0].Name,
		"exercises":   exercises,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.QuerySessions(ctx, start, end, 1)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
