package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

func anthropicTestConfig(url string) Config {
	return Config{
		Provider:     ProviderAnthropic,
		APIKey:       "test-key",
		BaseURL:      url,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
	}.withDefaults()
}

func openaiTestConfig(url string) Config {
	return Config{
		Provider:     ProviderOpenAI,
		APIKey:       "test-key",
		BaseURL:      url,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
	}.withDefaults()
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Messages[0].Content)

		json.NewEncoder(w).Encode(anthropicResponse{
			Content:    []anthropicContent{{Type: "text", Text: "world"}},
			Model:      "claude-sonnet-4-5",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 3, OutputTokens: 2},
		})
	}))
	defer server.Close()

	client := newAnthropicClient(anthropicTestConfig(server.URL))
	resp, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "world", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 3, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
}

func TestAnthropicAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(anthropicResponse{
			Error: &anthropicError{Type: "authentication_error", Message: "invalid x-api-key"},
		})
	}))
	defer server.Close()

	client := newAnthropicClient(anthropicTestConfig(server.URL))
	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAuth))
}

func TestAnthropicRateLimitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := anthropicTestConfig(server.URL)
	cfg.MaxRetries = 1
	client := newAnthropicClient(cfg)

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendRateLimit))
}

func TestAnthropicRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "recovered"}},
		})
	}))
	defer server.Close()

	client := newAnthropicClient(anthropicTestConfig(server.URL))
	resp, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := newAnthropicClient(anthropicTestConfig(server.URL))
	_, err := client.Generate(ctx, &GenerateRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendTimeout))
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openaiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(openaiResponse{
			Model: "gpt-4o",
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "world"}, FinishReason: "stop"},
			},
			Usage: openaiUsage{PromptTokens: 5, CompletionTokens: 1},
		})
	}))
	defer server.Close()

	client := newOpenAIClient(openaiTestConfig(server.URL))
	resp, err := client.Generate(context.Background(), &GenerateRequest{
		Prompt:       "hello",
		SystemPrompt: "be brief",
	})
	require.NoError(t, err)

	assert.Equal(t, "world", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.InputTokens)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{Model: "gpt-4o"})
	}))
	defer server.Close()

	client := newOpenAIClient(openaiTestConfig(server.URL))
	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAPI))
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "llamacpp", APIKey: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendConfig))
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := New(Config{Provider: ProviderAnthropic})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAuth))
}

func TestNewAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	client, err := New(Config{Provider: ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderAnthropic, APIKey: "x"}.withDefaults()

	assert.Equal(t, "anthropic", cfg.Name)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
}

func TestRegistry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{})
	}))
	defer server.Close()

	reg := NewRegistry()

	_, err := reg.Default()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendNotFound))

	first := newAnthropicClient(anthropicTestConfig(server.URL))
	require.NoError(t, reg.Register("anthropic", first))

	second := newOpenAIClient(openaiTestConfig(server.URL))
	require.NoError(t, reg.Register("openai", second))

	// Duplicate names are rejected.
	err = reg.Register("anthropic", first)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendConfig))

	// First registration becomes the default.
	def, err := reg.Default()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", def.Name())

	require.NoError(t, reg.SetDefault("openai"))
	def, err = reg.Default()
	require.NoError(t, err)
	assert.Equal(t, "openai", def.Name())

	assert.ElementsMatch(t, []string{"anthropic", "openai"}, reg.List())

	require.NoError(t, reg.CloseAll())
	assert.Empty(t, reg.List())
}
