package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/tp-policy-engine/internal/httputil"
)

func init() {
	// Avoid real backoff sleeps in retry paths.
	httputil.RetryBaseDelay = time.Millisecond
}

// --- Ollama ---

func TestOllamaComplete(t *testing.T) {
	var gotReq ollamaRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "Generated section text.", Done: true})
	}))
	defer ts.Close()

	client := &OllamaClient{BaseURL: ts.URL, Model: "llama3.2:latest"}
	got, err := client.Complete(context.Background(), "Draft the section.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Generated section text." {
		t.Errorf("got %q", got)
	}
	if gotReq.Model != "llama3.2:latest" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Prompt != "Draft the section." {
		t.Errorf("prompt = %q", gotReq.Prompt)
	}
	if gotReq.Stream {
		t.Error("stream should be false")
	}
}

func TestOllamaCompleteServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	client := &OllamaClient{BaseURL: ts.URL, Model: "missing"}
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestOllamaCompleteEmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Response: "", Done: true})
	}))
	defer ts.Close()

	client := &OllamaClient{BaseURL: ts.URL, Model: "m"}
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestOllamaCompleteRetriesOverload(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "ok", Done: true})
	}))
	defer ts.Close()

	client := &OllamaClient{BaseURL: ts.URL, Model: "m", MaxRetries: 2}
	got, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

// --- Claude ---

func TestClaudeComplete(t *testing.T) {
	var gotReq claudeRequest
	var gotKey, gotVersion string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "text", Text: "First part. "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "Second part."},
		}})
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	client := &ClaudeClient{APIKey: "test-key", Model: "claude-test"}
	got, err := client.Complete(context.Background(), "Draft the section.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "First part. Second part." {
		t.Errorf("got %q", got)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header not set")
	}
	if gotReq.Model != "claude-test" || gotReq.MaxTokens == 0 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestClaudeCompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"authentication_error"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	client := &ClaudeClient{APIKey: "bad-key", Model: "claude-test"}
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestClaudeCompleteNoTextContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{})
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	client := &ClaudeClient{APIKey: "k", Model: "m"}
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for response without text content")
	}
}

func TestClaudeCompleteRetriesRateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{{Type: "text", Text: "ok"}}})
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	client := &ClaudeClient{APIKey: "k", Model: "m", MaxRetries: 2}
	got, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
