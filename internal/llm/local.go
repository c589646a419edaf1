package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/config"
)

const defaultLocalBaseURL = "http://localhost:11434"

// localClient talks to a self-hosted Ollama-shaped chat endpoint with a
// single request/response call. Some servers reply with one JSON envelope,
// others with newline-delimited partial messages even when streaming was not
// requested; both shapes are tolerated. No automatic retries.
type localClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newLocalClient(cfg config.LLMConfig, timeout time.Duration) (*localClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("local backend: model required")
	}
	return &localClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *localClient) Provider() string { return "local" }
func (c *localClient) Model() string    { return c.model }

type localChatRequest struct {
	Model    string             `json:"model"`
	Messages []responsesMessage `json:"messages"`
	Stream   bool               `json:"stream"`
	Format   string             `json:"format,omitempty"`
}

type localChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (c *localClient) Complete(ctx context.Context, system, user string, schema map[string]any) (string, error) {
	// The local endpoint has no schema enforcement; steer it via the prompt.
	if schema != nil {
		system = system + "\n\n" + schemaPrompt(schema)
	}

	reqBody := localChatRequest{
		Model: c.model,
		Messages: []responsesMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}
	if schema != nil {
		reqBody.Format = "json"
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	text, err := decodeLocalBody(raw)
	if err != nil {
		return "", err
	}
	if schema != nil {
		text = sanitizeJSONText(text)
	}
	return text, nil
}

// decodeLocalBody extracts the message content from a local backend reply.
// First attempt: a single JSON envelope. Failing that: newline-delimited
// fragments whose content fields are concatenated.
func decodeLocalBody(raw []byte) (string, error) {
	var single localChatResponse
	if err := json.Unmarshal(raw, &single); err == nil {
		if strings.TrimSpace(single.Message.Content) == "" {
			return "", errors.New("empty completion from local backend")
		}
		return single.Message.Content, nil
	}

	var full strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var chunk localChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return "", fmt.Errorf("unparseable local backend response line: %w", err)
		}
		full.WriteString(chunk.Message.Content)
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", errors.New("empty completion from local backend")
	}
	return full.String(), nil
}

func schemaPrompt(schema map[string]any) string {
	var b strings.Builder
	b.WriteString("Return ONLY a valid JSON object that conforms to this JSON Schema. No markdown, no commentary.\n")
	if enc, err := json.Marshal(schema); err == nil && len(enc) <= 32<<10 {
		b.WriteString("Schema:\n")
		b.Write(enc)
	}
	return strings.TrimSpace(b.String())
}
