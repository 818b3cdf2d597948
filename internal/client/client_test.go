package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

func streamHandler(t *testing.T, build func(w *stream.Writer)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req pipeline.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ProjectName)

		w.Header().Set("Content-Type", "text/event-stream")
		build(stream.NewWriter(w))
	}
}

func TestGenerateForwardsProgress(t *testing.T) {
	ts := httptest.NewServer(streamHandler(t, func(w *stream.Writer) {
		w.Send(stream.PhaseStart("plan", "planning"))
		w.Send(stream.PhaseComplete("plan", "planned"))
		w.SendResult(&stream.GenerationResult{ProjectID: "p1", Success: true})
	}))
	defer ts.Close()

	var phases []string
	result, err := New(ts.URL).Generate(context.Background(),
		pipeline.Request{ProjectName: "demo"},
		func(ev stream.Event) { phases = append(phases, string(ev.Type)) })
	require.NoError(t, err)

	assert.Equal(t, "p1", result.ProjectID)
	assert.Equal(t, []string{"phase_start", "phase_complete"}, phases)
}

func TestGenerateErrorFrame(t *testing.T) {
	ts := httptest.NewServer(streamHandler(t, func(w *stream.Writer) {
		w.Send(stream.PhaseStart("store:A", "generating"))
		w.SendError("store:A", string(errors.ErrCodeBackendRateLimit), "rate limited")
	}))
	defer ts.Close()

	_, err := New(ts.URL).Generate(context.Background(), pipeline.Request{ProjectName: "demo"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendRateLimit))
}

func TestGenerateTruncatedStream(t *testing.T) {
	// Server emits progress but dies before the terminal frame.
	ts := httptest.NewServer(streamHandler(t, func(w *stream.Writer) {
		w.Send(stream.PhaseStart("store:A", "generating"))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Generate(context.Background(), pipeline.Request{ProjectName: "demo"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStreamTermination))
}

func TestGenerateCancellation(t *testing.T) {
	blocked := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := stream.NewWriter(w)
		sw.Send(stream.PhaseStart("store:A", "generating"))
		<-blocked
	}))
	defer ts.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(ts.URL).Generate(ctx, pipeline.Request{ProjectName: "demo"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStreamTermination))
}

func TestGenerateSync(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate/sync", r.URL.Path)
		json.NewEncoder(w).Encode(stream.GenerationResult{ProjectID: "p1", Success: true})
	}))
	defer ts.Close()

	result, err := New(ts.URL).GenerateSync(context.Background(), pipeline.Request{ProjectName: "demo"})
	require.NoError(t, err)
	assert.Equal(t, "p1", result.ProjectID)
}

func TestGenerateSyncErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"code":  string(errors.ErrCodeBackendAuth),
			"error": "authentication failed",
		})
	}))
	defer ts.Close()

	_, err := New(ts.URL).GenerateSync(context.Background(), pipeline.Request{ProjectName: "demo"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAuth))
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	assert.NoError(t, New(ts.URL).Ready(context.Background()))
}

func TestReadyUnreachable(t *testing.T) {
	err := New("http://127.0.0.1:1").Ready(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAPI))
}
