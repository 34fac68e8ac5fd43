package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-analyzer/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, model string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("sk-test", model)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer auth")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"ats_score\":80} "}}]}`))
	}, "gpt-4o-mini")

	out, err := c.Complete(context.Background(), llm.BuildATSRequest("resume text"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"ats_score":80}` {
		t.Fatalf("unexpected content %q", out)
	}
	if got.ResponseFormat.Type != "json_object" || got.MaxTokens != 4000 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("expected system + user messages, got %+v", got.Messages)
	}
}

func TestCompleteGPT5OmitsTemperature(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}, "gpt-5-mini")

	if _, err := c.Complete(context.Background(), llm.BuildRewriteRequest("x")); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := raw["temperature"]; ok {
		t.Fatalf("temperature should be omitted for gpt-5: %v", raw)
	}
	if raw["max_completion_tokens"] != float64(4000) {
		t.Fatalf("expected max_completion_tokens, got %v", raw)
	}
}

func TestCompleteReturnsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}, "")

	_, err := c.Complete(context.Background(), llm.BuildATSRequest("x"))
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || statusErr.Message != "slow down (rate_limit_error)" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, "")
	if _, err := c.Complete(context.Background(), llm.BuildATSRequest("x")); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "gpt-4o"); err == nil {
		t.Fatalf("expected error without api key")
	}
}
