package task

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// Field describes one field of a store's state shape.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// StoreConfig configures a client-side state store task.
type StoreConfig struct {
	Name    string   `json:"name" yaml:"name"`
	State   []Field  `json:"state,omitempty" yaml:"state,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// TaskType implements Config.
func (c StoreConfig) TaskType() Type { return TypeStore }

// Validate implements Config.
func (c StoreConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewTaskConfigMissingError("store", "name")
	}
	return nil
}

// QueryConfig configures a server-state query task (a data-fetching hook
// bound to one API endpoint).
type QueryConfig struct {
	Name     string `json:"name" yaml:"name"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Method   string `json:"method,omitempty" yaml:"method,omitempty"`
}

// TaskType implements Config.
func (c QueryConfig) TaskType() Type { return TypeQuery }

// Validate implements Config.
func (c QueryConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewTaskConfigMissingError("query", "name")
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.NewTaskConfigMissingError("query", "endpoint")
	}
	return nil
}

// EffectiveMethod returns the HTTP method, defaulting to GET.
func (c QueryConfig) EffectiveMethod() string {
	if c.Method == "" {
		return "GET"
	}
	return strings.ToUpper(c.Method)
}

// HookConfig configures a custom reusable hook task.
type HookConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Purpose string   `json:"purpose" yaml:"purpose"`
	Uses    []string `json:"uses,omitempty" yaml:"uses,omitempty"`
}

// TaskType implements Config.
func (c HookConfig) TaskType() Type { return TypeHook }

// Validate implements Config.
func (c HookConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewTaskConfigMissingError("hook", "name")
	}
	if strings.TrimSpace(c.Purpose) == "" {
		return errors.NewTaskConfigMissingError("hook", "purpose")
	}
	return nil
}

// MiddlewareKind enumerates the supported middleware flavors.
type MiddlewareKind string

// Middleware kinds
const (
	MiddlewareAuth    MiddlewareKind = "auth"
	MiddlewareLogging MiddlewareKind = "logging"
	MiddlewareError   MiddlewareKind = "error"
)

// MiddlewareConfig configures a request middleware task.
type MiddlewareConfig struct {
	Name string         `json:"name" yaml:"name"`
	Kind MiddlewareKind `json:"kind" yaml:"kind"`

	// TokenLocation is only meaningful for auth middleware; it names where
	// the generated code should read the auth token from.
	TokenLocation string `json:"token_location,omitempty" yaml:"token_location,omitempty"`
}

// TaskType implements Config.
func (c MiddlewareConfig) TaskType() Type { return TypeMiddleware }

// Validate implements Config.
func (c MiddlewareConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewTaskConfigMissingError("middleware", "name")
	}
	switch c.Kind {
	case MiddlewareAuth, MiddlewareLogging, MiddlewareError:
		return nil
	case "":
		return errors.NewTaskConfigMissingError("middleware", "kind")
	default:
		return errors.New(errors.ErrCodeTaskConfigInvalid,
			fmt.Sprintf("middleware %q has unknown kind %q", c.Name, c.Kind))
	}
}

// EffectiveTokenLocation returns where auth middleware should read tokens
// from, defaulting to the Authorization header.
func (c MiddlewareConfig) EffectiveTokenLocation() string {
	if c.TokenLocation == "" {
		return "Authorization header (Bearer scheme)"
	}
	return c.TokenLocation
}

// Route describes one navigable route of the generated application.
type Route struct {
	Path      string `json:"path" yaml:"path"`
	Component string `json:"component" yaml:"component"`
	Protected bool   `json:"protected,omitempty" yaml:"protected,omitempty"`
}

// RouterConfig configures the application router task.
type RouterConfig struct {
	Routes []Route `json:"routes" yaml:"routes"`
}

// TaskType implements Config.
func (c RouterConfig) TaskType() Type { return TypeRouter }

// Validate implements Config.
func (c RouterConfig) Validate() error {
	if len(c.Routes) == 0 {
		return errors.NewTaskConfigMissingError("router", "routes")
	}
	for i, r := range c.Routes {
		if strings.TrimSpace(r.Path) == "" {
			return errors.NewTaskConfigMissingError("router", fmt.Sprintf("routes[%d].path", i))
		}
		if strings.TrimSpace(r.Component) == "" {
			return errors.NewTaskConfigMissingError("router", fmt.Sprintf("routes[%d].component", i))
		}
	}
	return nil
}

// ProviderConfig configures the provider/root task that ties the generated
// application together. Always present, always last in the plan.
type ProviderConfig struct {
	ProjectName string            `json:"project_name" yaml:"project_name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	TechStack   map[string]string `json:"tech_stack,omitempty" yaml:"tech_stack,omitempty"`
}

// TaskType implements Config.
func (c ProviderConfig) TaskType() Type { return TypeProvider }

// Validate implements Config.
func (c ProviderConfig) Validate() error {
	if strings.TrimSpace(c.ProjectName) == "" {
		return errors.NewTaskConfigMissingError("provider", "project_name")
	}
	return nil
}
