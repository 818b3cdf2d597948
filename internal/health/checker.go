// Package health provides pluggable health checks and Kubernetes-style
// probe state for the generation server.
package health

import (
	"context"
	"time"
)

// Checker verifies one system dependency or capability.
type Checker interface {
	// Name returns the unique check name, lowercase with hyphens.
	Name() string

	// Check performs the check. It must respect the context deadline and
	// return quickly.
	Check(ctx context.Context) *Result
}

// Status is a health check verdict.
type Status string

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the component works with reduced capability.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the component is not working.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result is the outcome of one health check.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	// Details holds structured extras (counts, versions, errors).
	Details map[string]interface{} `json:"details,omitempty"`

	// Latency is how long the check took.
	Latency time.Duration `json:"latency,omitempty"`
}

// NewResult creates a result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// Healthy creates a healthy result.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
