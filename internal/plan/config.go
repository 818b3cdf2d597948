package plan

import "github.com/felixgeelhaar/appforge/internal/task"

// StoreSpec declares one store task: its configuration plus the caller's
// explicit dependencies. Dependencies are never inferred.
type StoreSpec struct {
	task.StoreConfig `yaml:",inline"`
	DependsOn        []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// QuerySpec declares one query task.
type QuerySpec struct {
	task.QueryConfig `yaml:",inline"`
	DependsOn        []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// HookSpec declares one custom hook task.
type HookSpec struct {
	task.HookConfig `yaml:",inline"`
	DependsOn       []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// MiddlewareSpec declares one middleware task.
type MiddlewareSpec struct {
	task.MiddlewareConfig `yaml:",inline"`
	DependsOn             []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// ProjectConfig is the input to plan building: the full declaration of what
// the generated application contains. Each layer is optional; an empty
// layer is simply skipped.
type ProjectConfig struct {
	ProjectName string            `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	TechStack   map[string]string `json:"tech_stack,omitempty" yaml:"tech_stack,omitempty"`

	Stores     []StoreSpec      `json:"stores,omitempty" yaml:"stores,omitempty"`
	Queries    []QuerySpec      `json:"queries,omitempty" yaml:"queries,omitempty"`
	Hooks      []HookSpec       `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	Middleware []MiddlewareSpec `json:"middleware,omitempty" yaml:"middleware,omitempty"`

	// Routes plus UseRouter control the router layer. Routes without
	// UseRouter emit no router task.
	Routes    []task.Route `json:"routes,omitempty" yaml:"routes,omitempty"`
	UseRouter bool         `json:"use_router,omitempty" yaml:"use_router,omitempty"`
}

// EffectiveProjectName returns the project name, defaulting to "app" so a
// minimal configuration still yields a valid provider/root task.
func (c ProjectConfig) EffectiveProjectName() string {
	if c.ProjectName == "" {
		return "app"
	}
	return c.ProjectName
}
