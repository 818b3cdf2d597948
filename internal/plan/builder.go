package plan

import (
	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/task"
)

// RootTaskName is the name of the provider/root task every plan ends with.
const RootTaskName = "root"

// Build creates a Plan from a project configuration. Pure and
// deterministic: no I/O, no clock, and within a layer tasks follow input
// collection order.
//
// Disabling every optional layer still yields a one-task plan containing
// only the provider/root task.
func Build(cfg ProjectConfig) (*Plan, error) {
	var tasks []task.Task

	appendTask := func(t task.Task, err error) error {
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	}

	for _, s := range cfg.Stores {
		if err := appendTask(task.New(task.TypeStore, s.Name, s.StoreConfig, s.DependsOn...)); err != nil {
			return nil, err
		}
	}
	for _, q := range cfg.Queries {
		if err := appendTask(task.New(task.TypeQuery, q.Name, q.QueryConfig, q.DependsOn...)); err != nil {
			return nil, err
		}
	}
	for _, h := range cfg.Hooks {
		if err := appendTask(task.New(task.TypeHook, h.Name, h.HookConfig, h.DependsOn...)); err != nil {
			return nil, err
		}
	}
	for _, m := range cfg.Middleware {
		if err := appendTask(task.New(task.TypeMiddleware, m.Name, m.MiddlewareConfig, m.DependsOn...)); err != nil {
			return nil, err
		}
	}
	if cfg.UseRouter {
		routerCfg := task.RouterConfig{Routes: cfg.Routes}
		if err := appendTask(task.New(task.TypeRouter, "app", routerCfg)); err != nil {
			return nil, err
		}
	}

	// The provider/root task closes every plan.
	rootCfg := task.ProviderConfig{
		ProjectName: cfg.EffectiveProjectName(),
		Description: cfg.Description,
		TechStack:   cfg.TechStack,
	}
	if err := appendTask(task.New(task.TypeProvider, RootTaskName, rootCfg)); err != nil {
		return nil, err
	}

	if err := validateDependencies(tasks); err != nil {
		return nil, err
	}

	return &Plan{tasks: tasks}, nil
}

// validateDependencies checks that every declared dependency resolves to an
// earlier task in the plan. Forward-only references make cycles impossible.
func validateDependencies(tasks []task.Task) error {
	seen := make(map[string]bool, len(tasks))

	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				if existsLater(tasks, dep) {
					return errors.New(errors.ErrCodePlanCyclicDep,
						"task "+t.ID+" has forward or circular dependency on "+dep).
						WithSuggestion("Dependencies can only reference tasks in earlier layers")
				}
				return errors.NewPlanDepMissingError(t.ID, dep)
			}
		}
		seen[t.ID] = true
	}

	return nil
}

func existsLater(tasks []task.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
