// Package journal sends plain-text workout journal files to a LiftLog server.
// Files are named by date (2026-01-05.txt); each one becomes a single
// ingest call against that date.
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meltforce/liftlog/internal/ingest"
)

// Client sends journal text to the LiftLog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the LiftLog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SendJournal POSTs one journal's text against its date. Transport failures
// and 5xx responses are retried up to 3 times with exponential backoff; 4xx
// responses are permanent and fail immediately, since resending unchanged
// text cannot fix them.
func (c *Client) SendJournal(text, date string) (*ingest.Result, error) {
	data, err := json.Marshal(ingest.Request{Text: text, Date: date})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+"/api/v1/log", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result ingest.Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding result: %w", err)
			}
			return &result, nil
		}
		lastErr = fmt.Errorf("log request failed (status %d): %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
