package health

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/appforge/internal/backend"
)

// BackendChecker verifies the configured generation backends respond.
type BackendChecker struct {
	clients []backend.Client
}

// NewBackendChecker creates a checker over the given backend clients.
func NewBackendChecker(clients ...backend.Client) *BackendChecker {
	return &BackendChecker{clients: clients}
}

// Name implements Checker.
func (c *BackendChecker) Name() string {
	return "generation-backends"
}

// Check pings every backend. All healthy is healthy, some healthy is
// degraded, none (or none configured) is unhealthy.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	if len(c.clients) == 0 {
		return Unhealthy("no generation backends configured").
			WithDetail("backend_count", 0).
			WithDetail("suggestion", "Configure at least one backend in appforge.yaml")
	}

	healthy := 0
	details := make(map[string]interface{}, len(c.clients))

	for _, client := range c.clients {
		if err := client.Health(ctx); err != nil {
			details[client.Name()] = map[string]interface{}{
				"healthy": false,
				"error":   err.Error(),
			}
			continue
		}
		healthy++
		details[client.Name()] = map[string]interface{}{"healthy": true}
	}

	total := len(c.clients)
	result := NewResult(StatusHealthy, "").
		WithDetail("total_backends", total).
		WithDetail("healthy_backends", healthy).
		WithDetail("backends", details)

	switch {
	case healthy == 0:
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("no healthy backends (0/%d)", total)
	case healthy < total:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("some backends unhealthy (%d/%d)", healthy, total)
	default:
		result.Message = fmt.Sprintf("all backends healthy (%d/%d)", healthy, total)
	}
	return result
}
