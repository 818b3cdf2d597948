// Package backend implements the text-generation boundary: one prompt
// string in, one reply string out, or a backend error. Any provider
// satisfying Client is interchangeable from the executor's point of view.
package backend

import (
	"context"
	"time"
)

// Client is the contract every text-generation backend implements.
type Client interface {
	// Name returns the backend identifier (e.g., "anthropic", "openai").
	Name() string

	// Generate sends one prompt and awaits the complete reply. Transient
	// transport failures are retried internally; callers see either a full
	// reply or a terminal error.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Health verifies the backend is reachable and credentialed.
	// Returns nil if healthy, an error describing the problem otherwise.
	Health(ctx context.Context) error

	// Close cleans up any resources used by the client.
	Close() error
}

// GenerateRequest contains all parameters for generating a reply
type GenerateRequest struct {
	// Prompt is the main input text for the model
	Prompt string `json:"prompt"`

	// SystemPrompt sets system-level instructions
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens limits the maximum reply length.
	// Set to 0 to use the client default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float64 `json:"temperature,omitempty"`
}

// GenerateResponse contains the model's reply
type GenerateResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// Model is the actual model that produced the reply
	Model string `json:"model"`

	// InputTokens is tokens in the prompt
	InputTokens int `json:"input_tokens,omitempty"`

	// OutputTokens is tokens in the reply
	OutputTokens int `json:"output_tokens,omitempty"`

	// Latency is how long the generation took
	Latency time.Duration `json:"latency"`

	// FinishReason explains why generation stopped
	FinishReason string `json:"finish_reason,omitempty"`
}
