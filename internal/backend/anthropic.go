package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicClient implements Client for the Anthropic Messages API
type anthropicClient struct {
	cfg    Config
	client *http.Client
}

// Anthropic API request/response structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason,omitempty"`
	Usage      anthropicUsage     `json:"usage"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newAnthropicClient(cfg Config) *anthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	return &anthropicClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Client.
func (c *anthropicClient) Name() string {
	return c.cfg.Name
}

// Generate implements Client.
func (c *anthropicClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	startTime := time.Now()

	maxTokens := c.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	body, err := json.Marshal(&anthropicRequest{
		Model:       c.cfg.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		System:      req.SystemPrompt,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "marshal request", err)
	}

	resp, err := doWithRetry(ctx, c.client, c.cfg.MaxRetries, c.cfg.RetryBackoff, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", c.cfg.APIKey)
		httpReq.Header.Set("anthropic-version", "2023-06-01")
		return httpReq, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeBackendTimeout, "anthropic request cancelled", err)
		}
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp, respBody)
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(respBody, &anthResp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "unmarshal response", err)
	}

	content := ""
	if len(anthResp.Content) > 0 {
		content = anthResp.Content[0].Text
	}

	return &GenerateResponse{
		Content:      content,
		Model:        anthResp.Model,
		InputTokens:  anthResp.Usage.InputTokens,
		OutputTokens: anthResp.Usage.OutputTokens,
		Latency:      time.Since(startTime),
		FinishReason: anthResp.StopReason,
	}, nil
}

// apiError maps an HTTP failure to the backend error taxonomy.
func (c *anthropicClient) apiError(resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("http error %d", resp.StatusCode)
	var errResp anthropicResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		msg = errResp.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewBackendAuthError(c.cfg.Name)
	case http.StatusTooManyRequests:
		return errors.NewBackendRateLimitError(c.cfg.Name, resp.Header.Get("Retry-After"))
	default:
		return errors.New(errors.ErrCodeBackendAPI, fmt.Sprintf("anthropic error: %s", msg))
	}
}

// Health implements Client.
func (c *anthropicClient) Health(ctx context.Context) error {
	_, err := c.Generate(ctx, &GenerateRequest{Prompt: "ping", MaxTokens: 1})
	return err
}

// Close implements Client.
func (c *anthropicClient) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
