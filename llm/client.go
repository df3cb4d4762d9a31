// Package llm is the boundary to the locally hosted text generation
// endpoint. One prompt in, one reply out: no retries, no streaming, no
// partial results.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Defaults match a stock local Ollama install.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3"
	DefaultTimeout = 90 * time.Second
)

// Config carries the gateway endpoint settings. The zero value is not
// usable; construct via DefaultConfig or FromEnv.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:11434. The
	// /api/generate path is appended by the client.
	BaseURL string
	// Model is the model identifier sent with every request.
	Model string
	// Timeout bounds the single round trip.
	Timeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Timeout: DefaultTimeout,
	}
}

// FromEnv builds a Config from CIRCUITFORGE_OLLAMA_URL, CIRCUITFORGE_MODEL
// and CIRCUITFORGE_LLM_TIMEOUT, falling back to the defaults for anything
// unset or unparseable.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("CIRCUITFORGE_OLLAMA_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CIRCUITFORGE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CIRCUITFORGE_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			slog.Warn("Ignoring invalid CIRCUITFORGE_LLM_TIMEOUT", "value", v)
		}
	}
	return cfg
}

// Client defines the interface for interacting with the model endpoint.
type Client interface {
	// Generate sends a single prompt and returns the text reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GatewayError reports a transport failure or a non-success response from
// the endpoint. Status is zero when the request never reached the server.
type GatewayError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway request failed: %v", e.Err)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ollamaClient implements Client against an Ollama /api/generate endpoint.
type ollamaClient struct {
	cfg    Config
	client *http.Client
}

// New creates a gateway client for the configured endpoint.
func New(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ollamaClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse accepts both documented success shapes: the primary
// top level "response" field and the older results/text form. Any third
// shape is treated as an empty reply rather than guessed at.
type generateResponse struct {
	Response string `json:"response"`
	Results  []struct {
		Text string `json:"text"`
	} `json:"results"`
}

func (r *generateResponse) text() string {
	if r.Response != "" {
		return r.Response
	}
	if len(r.Results) > 0 {
		return r.Results[0].Text
	}
	return ""
}

// Generate implements Client with a single POST round trip.
func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Debug("Sending prompt to model endpoint", "model", c.cfg.Model, "prompt_length", len(prompt))

	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("Model endpoint unreachable", "error", err)
		return "", &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Error("Model endpoint returned error", "status", resp.StatusCode)
		return "", &GatewayError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &GatewayError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	reply := result.text()
	slog.Debug("Received model reply", "response_length", len(reply))
	return reply, nil
}

// --- Mock Client for Testing ---

// MockClient provides a mock Client implementation for tests.
type MockClient struct {
	GenerateFunc     func(ctx context.Context, prompt string) (string, error)
	ResponseToReturn string
	ErrorToReturn    error
	ReceivedPrompt   string
}

// Generate implements Client for the mock.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.ReceivedPrompt = prompt
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return m.ResponseToReturn, m.ErrorToReturn
}
