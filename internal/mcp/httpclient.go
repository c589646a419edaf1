package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		enc, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		reqBody = bytes.NewReader(enc)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, raw)
	}

	return raw, nil
}

// dateParams converts a DataSource date range into REST query parameters.
// The DataSource end is an exclusive timestamp, the API's end parameter an
// inclusive date the server extends by a day, so the exclusive bound maps
// back to the last included calendar day.
func dateParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(models.DateOnly))
	v.Set("end", end.AddDate(0, 0, -1).Format(models.DateOnly))
	return v
}

func (c *HTTPClient) LogWorkout(ctx context.Context, req ingest.Request) (*ingest.Result, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/v1/log", nil, req)
	if err != nil {
		return nil, err
	}

	var result ingest.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode log result: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) ListPlans(ctx context.Context, _ int) ([]models.Plan, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, nil)
	if err != nil {
		return nil, err
	}

	var plans []models.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("httpclient: decode plans: %w", err)
	}
	return plans, nil
}

func (c *HTTPClient) ExercisesForDay(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]models.Exercise, error) {
	params := url.Values{}
	params.Set("day", strconv.Itoa(dayOfWeek))

	raw, err := c.do(ctx, http.MethodGet, "/api/v1/plans/"+planID.String()+"/exercises", params, nil)
	if err != nil {
		return nil, err
	}

	var exercises []models.Exercise
	if err := json.Unmarshal(raw, &exercises); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return exercises, nil
}

func (c *HTTPClient) QuerySessions(ctx context.Context, start, end time.Time, _ int) ([]models.Session, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/sessions", dateParams(start, end), nil)
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	var detail storage.SessionDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &detail, nil
}

func (c *HTTPClient) QueryExerciseHistory(ctx context.Context, nameFilter string, start, end time.Time, _ int) ([]storage.LogDetail, error) {
	params := dateParams(start, end)
	params.Set("name", nameFilter)

	raw, err := c.do(ctx, http.MethodGet, "/api/v1/exercises/history", params, nil)
	if err != nil {
		return nil, err
	}

	var logs []storage.LogDetail
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return logs, nil
}

func (c *HTTPClient) GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.VolumePeriod, error) {
	params := dateParams(start, end)
	if bucket == "1 month" {
		params.Set("bucket", "monthly")
	} else {
		params.Set("bucket", "weekly")
	}

	raw, err := c.do(ctx, http.MethodGet, "/api/v1/stats/volume", params, nil)
	if err != nil {
		return nil, err
	}

	var periods []storage.VolumePeriod
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode volume: %w", err)
	}
	return periods, nil
}
