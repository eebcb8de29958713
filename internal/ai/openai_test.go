package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInferSchemaAgainstFakeServer(t *testing.T) {
	content := `{"dataset":"suppliers","idKey":"code","confidence":0.8,"fields":[{"name":"code","type":"text"},{"name":"rating","type":"stars"},{"name":""}]}`
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 2 {
			gotPrompt = req.Messages[1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-test", 5*time.Second)
	s, err := c.InferSchema(context.Background(), []string{`{"code":"S1","rating":4}`})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if s.Dataset != "suppliers" || s.IDKey != "code" || len(s.Fields) != 2 {
		t.Fatalf("schema: %+v", s)
	}
	if s.Fields[1].Type != "text" {
		t.Fatalf("unknown type should fall back to text, got %q", s.Fields[1].Type)
	}
	if !strings.Contains(gotPrompt, `{"code":"S1","rating":4}`) {
		t.Fatalf("prompt missing sample: %q", gotPrompt)
	}
}

func TestInferSchemaDisabledWithoutKey(t *testing.T) {
	c := NewOpenAIClient("", "", "m", time.Second)
	if _, err := c.InferSchema(context.Background(), nil); err != ErrDisabled {
		t.Fatalf("err = %v", err)
	}
}

func TestPromptCapsSample(t *testing.T) {
	lines := make([]string, 80)
	for i := range lines {
		lines[i] = "row"
	}
	if n := strings.Count(buildSchemaPrompt(lines), "row\n"); n != 50 {
		t.Fatalf("prompt rows = %d", n)
	}
}
