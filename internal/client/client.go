// Package client is the remote side of the generation wire: it POSTs a
// build request to an appforge server and consumes the progress frame
// stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

// Client talks to one appforge server.
type Client struct {
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// New creates a client for the server at baseURL. The client deliberately
// has no overall timeout; generation runs are bounded by the caller's
// context and the server's operation ceiling.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate streams one run. Progress events are forwarded to onEvent in
// arrival order; the final result is returned. A connection dropped before
// the terminal frame surfaces as a termination error, and context
// cancellation aborts the stream the same way.
func (c *Client) Generate(ctx context.Context, req pipeline.Request, onEvent func(stream.Event)) (*stream.GenerationResult, error) {
	resp, err := c.post(ctx, "/api/generate", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.httpError(resp)
	}

	result, err := stream.NewReader(resp.Body).Read(onEvent)
	if err != nil {
		if ctx.Err() != nil {
			// The transport error under a cancelled context is still an
			// aborted stream, never silent success.
			return nil, errors.NewStreamTerminationError(ctx.Err())
		}
		return nil, err
	}
	return result, nil
}

// GenerateSync runs one request without progress streaming.
func (c *Client) GenerateSync(ctx context.Context, req pipeline.Request) (*stream.GenerationResult, error) {
	resp, err := c.post(ctx, "/api/generate/sync", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.httpError(resp)
	}

	var result stream.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStreamFraming, "decode sync result", err)
	}
	return &result, nil
}

// Ready reports whether the server's readiness probe passes.
func (c *Client) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/ready", nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackendAPI, "build readiness request", err)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackendAPI, "server unreachable", err).
			WithSuggestion("Check the server address and that 'appforge serve' is running")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeBackendAPI, "server is not ready")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, req pipeline.Request) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendAPI, "server unreachable", err).
			WithSuggestion("Check the server address and that 'appforge serve' is running")
	}
	return resp, nil
}

// httpError converts a non-200 response into a coded error, reading the
// server's error body when it has one.
func (c *Client) httpError(resp *http.Response) error {
	var body struct {
		Code        string   `json:"code"`
		Error       string   `json:"error"`
		Suggestions []string `json:"suggestions"`
	}

	msg := resp.Status
	code := errors.ErrCodeBackendAPI
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
		if body.Code != "" {
			code = errors.ErrorCode(body.Code)
		}
	}

	fe := errors.New(code, msg)
	return fe.WithSuggestions(body.Suggestions...)
}

// DefaultTimeout is a sensible per-run ceiling for callers that have no
// context deadline of their own.
const DefaultTimeout = 10 * time.Minute
