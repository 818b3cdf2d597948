// Package task defines the generation task model: one task per source
// artifact the pipeline produces, with a typed configuration variant per
// task kind.
package task

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// Type identifies the kind of artifact a task generates.
type Type string

// Task types
const (
	TypeStore      Type = "store"
	TypeQuery      Type = "query"
	TypeHook       Type = "hook"
	TypeMiddleware Type = "middleware"
	TypeRouter     Type = "router"
	TypeProvider   Type = "provider"
)

// Valid reports whether t is a known task type.
func (t Type) Valid() bool {
	switch t {
	case TypeStore, TypeQuery, TypeHook, TypeMiddleware, TypeRouter, TypeProvider:
		return true
	}
	return false
}

// Task is a single artifact-generation unit. Tasks are immutable once built
// into a plan.
type Task struct {
	ID         string   `json:"id"`
	Type       Type     `json:"type"`
	Name       string   `json:"name"`
	DependsOn  []string `json:"depends_on,omitempty"`
	Config     Config   `json:"-"`
	OutputFile string   `json:"output_file"`
}

// Config is the tagged configuration variant carried by a task. Each task
// type has its own struct with exactly the fields that kind requires,
// validated at construction rather than at use.
type Config interface {
	// TaskType returns the task type this configuration belongs to.
	TaskType() Type

	// Validate checks that all required fields for this kind are present.
	Validate() error
}

// New constructs a validated Task. The configuration is checked here so a
// malformed task never reaches prompt compilation or the network.
func New(t Type, name string, cfg Config, deps ...string) (Task, error) {
	if !t.Valid() {
		return Task{}, errors.New(errors.ErrCodeTaskTypeUnknown, fmt.Sprintf("unknown task type %q", t))
	}
	if strings.TrimSpace(name) == "" {
		return Task{}, errors.NewTaskConfigMissingError(string(t), "name")
	}
	if cfg == nil {
		return Task{}, errors.NewTaskConfigMissingError(string(t), "config")
	}
	if cfg.TaskType() != t {
		return Task{}, errors.New(errors.ErrCodeTaskConfigInvalid,
			fmt.Sprintf("task %q has a %s config but type %s", name, cfg.TaskType(), t))
	}
	if err := cfg.Validate(); err != nil {
		return Task{}, err
	}

	return Task{
		ID:         fmt.Sprintf("%s:%s", t, name),
		Type:       t,
		Name:       name,
		DependsOn:  deps,
		Config:     cfg,
		OutputFile: OutputFile(t, name),
	}, nil
}

// OutputFile returns the deliverable filename for a task of the given type
// and name, following the generated project's React/TypeScript layout.
func OutputFile(t Type, name string) string {
	switch t {
	case TypeStore:
		return "use" + exported(name) + ".ts"
	case TypeQuery:
		return "use" + exported(name) + "Query.ts"
	case TypeHook:
		return "use" + exported(name) + ".ts"
	case TypeMiddleware:
		return unexported(name) + "Middleware.ts"
	case TypeRouter:
		return "AppRouter.tsx"
	case TypeProvider:
		return "App.tsx"
	}
	return name + ".ts"
}

func exported(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func unexported(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
