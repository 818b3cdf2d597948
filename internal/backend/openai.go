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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiClient implements Client for the OpenAI Chat Completions API
type openaiClient struct {
	cfg    Config
	client *http.Client
}

// OpenAI API request/response structures
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newOpenAIClient(cfg Config) *openaiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &openaiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Client.
func (c *openaiClient) Name() string {
	return c.cfg.Name
}

// Generate implements Client.
func (c *openaiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	startTime := time.Now()

	messages := []openaiMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.Prompt})

	maxTokens := c.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	body, err := json.Marshal(&openaiRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "marshal request", err)
	}

	resp, err := doWithRetry(ctx, c.client, c.cfg.MaxRetries, c.cfg.RetryBackoff, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		return httpReq, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeBackendTimeout, "openai request cancelled", err)
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

	var oaResp openaiResponse
	if err := json.Unmarshal(respBody, &oaResp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "unmarshal response", err)
	}

	if len(oaResp.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeBackendAPI, "openai returned no choices")
	}

	return &GenerateResponse{
		Content:      oaResp.Choices[0].Message.Content,
		Model:        oaResp.Model,
		InputTokens:  oaResp.Usage.PromptTokens,
		OutputTokens: oaResp.Usage.CompletionTokens,
		Latency:      time.Since(startTime),
		FinishReason: oaResp.Choices[0].FinishReason,
	}, nil
}

// apiError maps an HTTP failure to the backend error taxonomy.
func (c *openaiClient) apiError(resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("http error %d", resp.StatusCode)
	var errResp openaiResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		msg = errResp.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewBackendAuthError(c.cfg.Name)
	case http.StatusTooManyRequests:
		return errors.NewBackendRateLimitError(c.cfg.Name, resp.Header.Get("Retry-After"))
	default:
		return errors.New(errors.ErrCodeBackendAPI, fmt.Sprintf("openai error: %s", msg))
	}
}

// Health implements Client.
func (c *openaiClient) Health(ctx context.Context) error {
	_, err := c.Generate(ctx, &GenerateRequest{Prompt: "ping", MaxTokens: 1})
	return err
}

// Close implements Client.
func (c *openaiClient) Close() error {
	return nil
}
