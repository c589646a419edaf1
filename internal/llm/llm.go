// Package llm provides the language-model backends used by the freeform
// workout parser. Both backends implement Client: one completion call given
// system and user text, returning the raw response text. The remote backend
// enforces a JSON schema server-side; the local backend is steered toward
// JSON via the prompt.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meltforce/liftlog/internal/config"
)

// ErrNotConfigured is returned by New when no backend provider is set.
// An ingest call cannot proceed without a backend; this is fatal for the
// call, never retried.
var ErrNotConfigured = errors.New("no language model backend configured")

// Client is the capability the freeform parser depends on. Implementations
// must honor ctx cancellation and bound each call with their configured
// timeout; a timeout surfaces as an ordinary error (a parse failure upstream).
type Client interface {
	// Provider identifies the backend ("openai" or "local").
	Provider() string
	// Model is the model identifier requests are sent to.
	Model() string
	// Complete sends system+user text and returns raw response text. When
	// schema is non-nil the backend constrains or steers output toward it.
	Complete(ctx context.Context, system, user string, schema map[string]any) (string, error)
}

// New builds the backend selected by cfg.Provider. The selection happens
// once at startup; backends are never mixed within one request.
func New(cfg config.LLMConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg, timeout)
	case "local":
		return newLocalClient(cfg, timeout)
	case "":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// HTTPError is a non-2xx response from a backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm backend http %d: %s", e.StatusCode, e.Body)
}
