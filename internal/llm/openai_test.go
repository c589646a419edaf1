package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/config"
)

func responsesBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
	})
	return string(b)
}

func newTestOpenAI(t *testing.T, baseURL string) *openaiClient {
	t.Helper()
	c, err := newOpenAIClient(config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
	}, 5*time.Second)
	if err != nil {
		t.Fatalf("newOpenAIClient: %v", err)
	}
	return c
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	if _, err := newOpenAIClient(config.LLMConfig{}, time.Second); err == nil {
		t.Error("newOpenAIClient accepted an empty api key")
	}
}

func TestOpenAIComplete(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("request path = %q, want /v1/responses", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(responsesBody(`{"items":[]}`)))
	}))
	defer srv.Close()

	c := newTestOpenAI(t, srv.URL)
	schema := map[string]any{"type": "object"}
	text, err := c.Complete(context.Background(), "system", "user", schema)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != `{"items":[]}` {
		t.Errorf("Complete = %q, want the output_text", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}

	format := gotReq["text"].(map[string]any)["format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("first attempt format = %v, want json_schema", format["type"])
	}
	if format["strict"] != true {
		t.Errorf("first attempt strict = %v, want true", format["strict"])
	}
}

func TestOpenAIFallbackToJSONObject(t *testing.T) {
	var formats []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		format := req["text"].(map[string]any)["format"].(map[string]any)
		formats = append(formats, format["type"].(string))
		if format["type"] == "json_schema" {
			http.Error(w, `{"error":"schema mode unsupported"}`, http.StatusBadRequest)
			return
		}
		w.Write([]byte(responsesBody(`{"items":[]}`)))
	}))
	defer srv.Close()

	c := newTestOpenAI(t, srv.URL)
	text, err := c.Complete(context.Background(), "system", "user", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != `{"items":[]}` {
		t.Errorf("Complete = %q, want fallback result", text)
	}
	if len(formats) != 2 || formats[0] != "json_schema" || formats[1] != "json_object" {
		t.Errorf("request formats = %v, want [json_schema json_object]", formats)
	}
}

func TestOpenAINoSecondFallback(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestOpenAI(t, srv.URL)
	if _, err := c.Complete(context.Background(), "system", "user", map[string]any{"type": "object"}); err == nil {
		t.Fatal("Complete succeeded against an always-failing server")
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want exactly 2 (schema + one fallback)", calls)
	}
}

func TestOpenAIStripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(responsesBody("```json\n{\"items\":[]}\n```")))
	}))
	defer srv.Close()

	c := newTestOpenAI(t, srv.URL)
	text, err := c.Complete(context.Background(), "system", "user", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != `{"items":[]}` {
		t.Errorf("Complete = %q, want fence stripped", text)
	}
}

func TestOpenAIRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(responsesBody("I logged your workout for you!")))
	}))
	defer srv.Close()

	c := newTestOpenAI(t, srv.URL)
	if _, err := c.Complete(context.Background(), "system", "user", map[string]any{"type": "object"}); err == nil {
		t.Error("Complete accepted prose where JSON was required")
	}
}

func TestSanitizeJSONText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := sanitizeJSONText(tc.in); got != tc.want {
			t.Errorf("sanitizeJSONText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
