package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/health"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

// stubBackend answers every prompt with a fenced reply, or fails everything
// when err is set.
type stubBackend struct {
	err error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Generate(_ context.Context, req *backend.GenerateRequest) (*backend.GenerateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if strings.Contains(req.Prompt, "Propose the architecture") {
		return &backend.GenerateResponse{Content: "```json\n{\"stores\":[{\"name\":\"A\"}]}\n```"}, nil
	}
	return &backend.GenerateResponse{Content: "```tsx\ngenerated\n```"}, nil
}

func (s *stubBackend) Health(context.Context) error { return s.err }
func (s *stubBackend) Close() error                 { return nil }

func newTestServer(t *testing.T, sb *stubBackend) *Server {
	t.Helper()
	pm := health.NewProbeManager("test")
	pm.MarkInitialized()
	pm.AddChecker(health.NewBackendChecker(sb))
	return NewServer(pipeline.New(sb), pm, Config{})
}

func requestBody(t *testing.T, name string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(pipeline.Request{ProjectName: name, Description: "a demo app"})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestGenerateStreaming(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate", "application/json", requestBody(t, "demo"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var phases []string
	result, err := stream.NewReader(resp.Body).Read(func(ev stream.Event) {
		phases = append(phases, ev.Phase)
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Contains(t, result.Phases, "store:A")
	assert.Contains(t, result.Phases, "provider:root")
	assert.Equal(t, "generated", result.Phases["store:A"].Source)

	// Analysis and plan phases arrive before any task phase.
	require.NotEmpty(t, phases)
	assert.Equal(t, pipeline.PhaseAnalysis, phases[0])
}

func TestGenerateStreamingBackendFailure(t *testing.T) {
	sb := &stubBackend{err: errors.NewBackendAuthError("stub")}
	srv := newTestServer(t, sb)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate", "application/json", requestBody(t, "demo"))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Failure arrives as an error frame on an already-200 stream.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = stream.NewReader(resp.Body).Read(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBackendAuth))
}

func TestGenerateSync(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate/sync", "application/json", requestBody(t, "demo"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result stream.GenerationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ProjectID)
	assert.Contains(t, result.Phases, "provider:root")
}

func TestGenerateSyncWireShape(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Hand-written camelCase request with requirements as one free-text
	// string, exactly as external callers send it.
	body := `{"projectName":"demo","description":"d","requirements":"needs auth"}`
	resp, err := http.Post(ts.URL+"/api/generate/sync", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Contains(t, result, "projectId")
	assert.Contains(t, result, "success")
	assert.Contains(t, result, "phases")
	assert.NotContains(t, result, "project_id")
}

func TestGenerateSyncBackendFailure(t *testing.T) {
	sb := &stubBackend{err: errors.NewBackendAuthError("stub")}
	srv := newTestServer(t, sb)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate/sync", "application/json", requestBody(t, "demo"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(errors.ErrCodeBackendAuth), body.Code)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/generate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/generate", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/generate", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthProbes(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/health/live", "/health/ready", "/health/startup", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err, path)
		var probe health.ProbeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&probe), path)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, health.StatusHealthy, probe.Status, path)
	}
}

func TestReadinessFailsDuringShutdown(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, srv.Shutdown(context.Background()))

	// The probe manager keeps answering even after Shutdown on a test
	// handler; readiness must report unhealthy.
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateRejectedDuringShutdown(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	require.NoError(t, srv.Shutdown(context.Background()))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", requestBody(t, "demo"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
