package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSuccess(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "hello"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "llama3"})
	reply, err := client.Generate(context.Background(), "describe a blinker")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)

	// Request shape: fixed model, prompt passthrough, streaming off
	assert.Equal(t, "llama3", gotBody.Model)
	assert.Equal(t, "describe a blinker", gotBody.Prompt)
	assert.False(t, gotBody.Stream)
}

func TestGenerateFallbackShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"text": "from results"}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	reply, err := client.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "from results", reply)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Contains(t, gwErr.Body, "model not loaded")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGenerateConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // guaranteed refused connection

	client := New(Config{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Zero(t, gwErr.Status)
	assert.Error(t, gwErr.Unwrap())
}

func TestConfigDefaults(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
		assert.Equal(t, "llama3", cfg.Model)
		assert.Equal(t, 90*time.Second, cfg.Timeout)
	})

	t.Run("FromEnv Overrides", func(t *testing.T) {
		t.Setenv("CIRCUITFORGE_OLLAMA_URL", "http://example.com:9999")
		t.Setenv("CIRCUITFORGE_MODEL", "mistral")
		t.Setenv("CIRCUITFORGE_LLM_TIMEOUT", "5s")

		cfg := FromEnv()
		assert.Equal(t, "http://example.com:9999", cfg.BaseURL)
		assert.Equal(t, "mistral", cfg.Model)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("FromEnv Bad Timeout", func(t *testing.T) {
		t.Setenv("CIRCUITFORGE_LLM_TIMEOUT", "not-a-duration")
		cfg := FromEnv()
		assert.Equal(t, DefaultTimeout, cfg.Timeout)
	})
}

func TestMockClient(t *testing.T) {
	mock := &MockClient{ResponseToReturn: "canned"}
	reply, err := mock.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "canned", reply)
	assert.Equal(t, "the prompt", mock.ReceivedPrompt)
}
