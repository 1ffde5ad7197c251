// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the text-generation backends used for section
// content: a local Ollama server and the Claude Messages API. Both
// satisfy the section package's TextGenerator interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/tp-policy-engine/internal/httputil"
)

// defaultOllamaURL is the standard local Ollama server address.
const defaultOllamaURL = "http://localhost:11434"

// OllamaClient generates text through a local Ollama server.
type OllamaClient struct {
	// BaseURL is the server address. Empty uses the local default.
	BaseURL string

	// Model is the model identifier (e.g. "llama3.2:latest").
	Model string

	// Client is the HTTP client. Nil uses http.DefaultClient.
	Client *http.Client

	// MaxRetries is the retry budget for rate-limited or overloaded
	// responses. Zero uses the httputil default.
	MaxRetries int
}

// ollamaRequest is the request body for the Ollama generate API.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaResponse is the non-streaming response from the generate API.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete sends the prompt to the Ollama generate endpoint and
// returns the generated text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	reqBody := ollamaRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding Ollama response: %w", err)
	}

	if oResp.Response == "" {
		return "", fmt.Errorf("Ollama returned empty response")
	}

	return oResp.Response, nil
}
