// Package freeform converts natural-language workout descriptions into
// structured items via a language-model backend. The backend's reply is
// treated as an untrusted wire payload: validated against an explicit shape
// before conversion, rejected (not coerced) when it doesn't conform.
package freeform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/meltforce/liftlog/internal/llm"
	"github.com/meltforce/liftlog/internal/models"
)

// Parser sends pre-normalized user text plus the day's canonical exercise
// names to the configured backend and validates the structured reply.
type Parser struct {
	client llm.Client
	log    *slog.Logger
}

// New creates a Parser bound to one backend client.
func New(client llm.Client, log *slog.Logger) *Parser {
	return &Parser{client: client, log: log}
}

// Provider reports the backend identity used for parsing.
func (p *Parser) Provider() string { return p.client.Provider() }

// Model reports the model identifier used for parsing.
func (p *Parser) Model() string { return p.client.Model() }

var (
	poundsRe   = regexp.MustCompile(`(?i)\b(pounds|pound|lb)\b`)
	currencyRe = regexp.MustCompile(`[$£€]`)
)

// preNormalize strips currency/unit artifacts before the text reaches the
// model: "$45" → "45", "45 pounds" → "45 lbs".
func preNormalize(text string) string {
	text = currencyRe.ReplaceAllString(text, "")
	text = poundsRe.ReplaceAllString(text, "lbs")
	return strings.TrimSpace(text)
}

const systemPrompt = `You convert a user's free-form workout description into structured JSON.

Rules:
- Emit one item per exercise mentioned, in the order mentioned. Never merge repeated mentions of the same exercise into one item.
- "N x M" or "N * M" means N sets of M reps each.
- A comma-separated list of numbers before an exercise name ("25, 20, 15 push ups") is the per-set rep counts, in order. Report it in reps_per_set, never averaged.
- Bodyweight exercises (no external load): always fill reps_per_set (even when every set is equal) and never include weight_lbs; set bodyweight to true.
- Weight-bearing exercises: use the single reps field when sets are uniform, reps_per_set when they vary, and include weight_lbs whenever a weight is stated.
- "@N" or "at N lbs" is the weight in pounds.
- Attach trailing commentary about a set ("felt brutal", "personal best") as that item's notes. Do not drop it or move it to another item.
- Match each exercise against the valid exercise list when possible and put the matched name in exercise; always put the user's original wording in input.`

// buildUserPrompt embeds the day's catalog as the closed set the model
// should choose from for its exercise field.
func buildUserPrompt(text string, exercises []string) string {
	var b strings.Builder
	b.WriteString("Valid exercises for today: ")
	if len(exercises) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(exercises, ", "))
	}
	b.WriteString("\n\nWorkout description:\n")
	b.WriteString(text)
	return b.String()
}

// buildSchema constrains the structured-output mode. The exercise field is
// an enum over the day's canonical names plus "" for no confident match.
func buildSchema(exercises []string) map[string]any {
	enum := make([]any, 0, len(exercises)+1)
	enum = append(enum, "")
	for _, name := range exercises {
		enum = append(enum, name)
	}

	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"input":        map[string]any{"type": "string"},
			"exercise":     map[string]any{"type": "string", "enum": enum},
			"sets":         map[string]any{"type": []any{"integer", "null"}},
			"reps":         map[string]any{"type": []any{"integer", "null"}},
			"reps_per_set": map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "integer"}},
			"weight_lbs":   map[string]any{"type": []any{"number", "null"}},
			"notes":        map[string]any{"type": []any{"string", "null"}},
			"bodyweight":   map[string]any{"type": "boolean"},
		},
		"required": []string{"input", "exercise", "sets", "reps", "reps_per_set", "weight_lbs", "notes", "bodyweight"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{"items": map[string]any{"type": "array", "items": item}},
		"required":             []string{"items"},
	}
}

type itemPayload struct {
	Input      string   `json:"input"`
	Exercise   string   `json:"exercise"`
	Sets       *int     `json:"sets"`
	Reps       *int     `json:"reps"`
	RepsPerSet []int    `json:"reps_per_set"`
	WeightLbs  *float64 `json:"weight_lbs"`
	Notes      *string  `json:"notes"`
	Bodyweight bool     `json:"bodyweight"`
}

// Parse converts raw text into ParsedItems using the day's catalog names as
// the matching hint. A reply with no items array, or whose items field is
// not a list, fails the whole call; there is no partial-success path here.
func (p *Parser) Parse(ctx context.Context, text string, exercises []string) ([]models.ParsedItem, error) {
	normalized := preNormalize(text)
	user := buildUserPrompt(normalized, exercises)
	schema := buildSchema(exercises)

	raw, err := p.client.Complete(ctx, systemPrompt, user, schema)
	if err != nil {
		return nil, fmt.Errorf("backend completion: %w", err)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}

	p.log.Info("parsed workout text",
		"provider", p.client.Provider(),
		"model", p.client.Model(),
		"items", len(items),
	)

	out := make([]models.ParsedItem, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeItem(it))
	}
	return out, nil
}

// decodeItems validates the reply shape: the payload must be a JSON object
// whose items field is a list.
func decodeItems(raw string) ([]itemPayload, error) {
	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}
	trimmed := strings.TrimSpace(string(envelope.Items))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("model output has no items array")
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("model output items field is not a list")
	}
	var items []itemPayload
	if err := json.Unmarshal(envelope.Items, &items); err != nil {
		return nil, fmt.Errorf("invalid items array: %w", err)
	}
	return items, nil
}

// normalizeItem applies the reps representation rules: a per-set list
// overrides a scalar; bodyweight items always carry a per-set list and no
// weight; weight-bearing items collapse a uniform list to a scalar.
func normalizeItem(it itemPayload) models.ParsedItem {
	item := models.ParsedItem{
		Input:      it.Input,
		Exercise:   it.Exercise,
		Sets:       it.Sets,
		WeightLbs:  it.WeightLbs,
		Bodyweight: it.Bodyweight,
	}
	if it.Notes != nil {
		item.Notes = strings.TrimSpace(*it.Notes)
	}

	if it.Bodyweight {
		item.WeightLbs = nil
		switch {
		case len(it.RepsPerSet) > 0:
			item.Reps = models.RepsPerSet(it.RepsPerSet)
		case it.Reps != nil:
			// Expand uniform sets into an explicit per-set list.
			n := 1
			if it.Sets != nil && *it.Sets > 0 {
				n = *it.Sets
			}
			list := make([]int, n)
			for i := range list {
				list[i] = *it.Reps
			}
			item.Reps = models.RepsPerSet(list)
		}
		if item.Sets == nil && item.Reps.IsList() {
			n := len(item.Reps.PerSet)
			item.Sets = &n
		}
		return item
	}

	switch {
	case len(it.RepsPerSet) > 0 && uniform(it.RepsPerSet):
		item.Reps = models.RepsEach(it.RepsPerSet[0])
		if item.Sets == nil {
			n := len(it.RepsPerSet)
			item.Sets = &n
		}
	case len(it.RepsPerSet) > 0:
		item.Reps = models.RepsPerSet(it.RepsPerSet)
		if item.Sets == nil {
			n := len(it.RepsPerSet)
			item.Sets = &n
		}
	case it.Reps != nil:
		item.Reps = models.RepsEach(*it.Reps)
	}
	return item
}

func uniform(list []int) bool {
	for _, n := range list[1:] {
		if n != list[0] {
			return false
		}
	}
	return true
}
