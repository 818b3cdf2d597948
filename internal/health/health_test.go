package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/errors"
)

type staticChecker struct {
	name   string
	result *Result
}

func (s *staticChecker) Name() string                  { return s.name }
func (s *staticChecker) Check(context.Context) *Result { return s.result }

func TestManagerAggregatesResults(t *testing.T) {
	m := NewManager()
	m.AddChecker(&staticChecker{name: "a", result: Healthy("ok")})
	m.AddChecker(&staticChecker{name: "b", result: Degraded("slow")})

	results := m.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["a"].Status)
	assert.NotZero(t, results["a"].Latency)

	assert.Equal(t, StatusDegraded, m.OverallStatus(results))
}

func TestOverallStatusUnhealthyWins(t *testing.T) {
	m := NewManager()
	results := map[string]*Result{
		"a": Healthy("ok"),
		"b": Degraded("slow"),
		"c": Unhealthy("down"),
	}
	assert.Equal(t, StatusUnhealthy, m.OverallStatus(results))
}

func TestOverallStatusEmpty(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewManager().OverallStatus(nil))
}

func TestProbeLifecycle(t *testing.T) {
	pm := NewProbeManager("1.2.3")
	ctx := context.Background()

	// Before initialization, startup fails but liveness passes.
	assert.Equal(t, StatusUnhealthy, pm.CheckStartup(ctx).Status)
	assert.Equal(t, StatusHealthy, pm.CheckLiveness(ctx).Status)

	pm.MarkInitialized()
	startup := pm.CheckStartup(ctx)
	assert.Equal(t, StatusHealthy, startup.Status)
	assert.Equal(t, "1.2.3", startup.Version)

	assert.Equal(t, StatusHealthy, pm.CheckReadiness(ctx).Status)

	// Shutdown drains: readiness fails, liveness degrades.
	pm.MarkShutdown()
	assert.Equal(t, StatusUnhealthy, pm.CheckReadiness(ctx).Status)
	assert.Equal(t, StatusDegraded, pm.CheckLiveness(ctx).Status)
}

func TestReadinessRunsCheckers(t *testing.T) {
	pm := NewProbeManager("test")
	pm.MarkInitialized()
	pm.AddChecker(&staticChecker{name: "dep", result: Unhealthy("gone")})

	result := pm.CheckReadiness(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	require.Contains(t, result.Checks, "dep")
}

type healthStub struct {
	name string
	err  error
}

func (h *healthStub) Name() string { return h.name }
func (h *healthStub) Generate(context.Context, *backend.GenerateRequest) (*backend.GenerateResponse, error) {
	return &backend.GenerateResponse{}, nil
}
func (h *healthStub) Health(context.Context) error { return h.err }
func (h *healthStub) Close() error                 { return nil }

func TestBackendChecker(t *testing.T) {
	authErr := errors.NewBackendAuthError("anthropic")

	tests := []struct {
		name    string
		clients []backend.Client
		want    Status
	}{
		{"none configured", nil, StatusUnhealthy},
		{"all healthy", []backend.Client{&healthStub{name: "a"}}, StatusHealthy},
		{"some unhealthy", []backend.Client{&healthStub{name: "a"}, &healthStub{name: "b", err: authErr}}, StatusDegraded},
		{"all unhealthy", []backend.Client{&healthStub{name: "a", err: authErr}}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewBackendChecker(tt.clients...)
			result := checker.Check(context.Background())
			assert.Equal(t, tt.want, result.Status, result.Message)
		})
	}
}

func TestManagerTimeoutApplies(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)

	slow := &funcChecker{name: "slow", fn: func(ctx context.Context) *Result {
		select {
		case <-ctx.Done():
			return Unhealthy("timed out")
		case <-time.After(time.Second):
			return Healthy("ok")
		}
	}}
	m.AddChecker(slow)

	results := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
}

type funcChecker struct {
	name string
	fn   func(context.Context) *Result
}

func (f *funcChecker) Name() string                      { return f.name }
func (f *funcChecker) Check(ctx context.Context) *Result { return f.fn(ctx) }
