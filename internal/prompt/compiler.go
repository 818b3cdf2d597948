// Package prompt renders a task definition into a self-contained
// instruction string for the text-generation backend.
//
// Each task type uses a fixed template: a configuration summary, a numbered
// requirements list, and one or more illustrative fenced code examples.
// Substitution is presence-based only; compilation never performs I/O.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/task"
)

// Compile renders one task into its backend prompt. It fails only on a
// missing or mismatched configuration for the task's type; every other
// shape of task compiles deterministically.
func Compile(t task.Task) (string, error) {
	if t.Config == nil {
		return "", errors.NewTaskConfigMissingError(string(t.Type), "config")
	}
	if err := t.Config.Validate(); err != nil {
		return "", err
	}

	switch cfg := t.Config.(type) {
	case task.StoreConfig:
		return compileStore(t, cfg), nil
	case task.QueryConfig:
		return compileQuery(t, cfg), nil
	case task.HookConfig:
		return compileHook(t, cfg), nil
	case task.MiddlewareConfig:
		return compileMiddleware(t, cfg), nil
	case task.RouterConfig:
		return compileRouter(t, cfg), nil
	case task.ProviderConfig:
		return compileProvider(t, cfg), nil
	default:
		return "", errors.New(errors.ErrCodeTaskTypeUnknown,
			fmt.Sprintf("no prompt template for task type %q", t.Type))
	}
}

// section writes a template part: title line, then body lines.
func section(b *strings.Builder, title string, lines ...string) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// requirements writes a numbered requirements list.
func requirements(b *strings.Builder, items ...string) {
	b.WriteString("## Requirements\n")
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

// example writes an illustrative fenced code example.
func example(b *strings.Builder, lang, code string) {
	b.WriteString("## Example\n```")
	b.WriteString(lang)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(code, "\n"))
	b.WriteString("\n```\n\n")
}

func header(b *strings.Builder, t task.Task, what string) {
	fmt.Fprintf(b, "Generate %s for a React + TypeScript application.\n", what)
	fmt.Fprintf(b, "Write the complete contents of %s. Reply with exactly one fenced code block containing only the file source.\n\n", t.OutputFile)
}

func compileStore(t task.Task, cfg task.StoreConfig) string {
	var b strings.Builder
	header(&b, t, fmt.Sprintf("a Zustand state store named %q", cfg.Name))

	summary := []string{fmt.Sprintf("Store name: %s", cfg.Name)}
	for _, f := range cfg.State {
		summary = append(summary, fmt.Sprintf("State field: %s (%s)", f.Name, f.Type))
	}
	for _, a := range cfg.Actions {
		summary = append(summary, fmt.Sprintf("Action: %s", a))
	}
	section(&b, "Configuration", summary...)

	requirements(&b,
		"Use the zustand create() API with a typed state interface.",
		"Every state field has an initial value and a setter action.",
		fmt.Sprintf("Export the hook as use%s.", exported(cfg.Name)),
		"No side effects at module load time.",
	)

	example(&b, "typescript", `import { create } from 'zustand';

interface CounterState {
  count: number;
  increment: () => void;
}

export const useCounter = create<CounterState>((set) => ({
  count: 0,
  increment: () => set((s) => ({ count: s.count + 1 })),
}));`)

	return b.String()
}

func compileQuery(t task.Task, cfg task.QueryConfig) string {
	var b strings.Builder
	header(&b, t, fmt.Sprintf("a React Query data hook named %q", cfg.Name))

	section(&b, "Configuration",
		fmt.Sprintf("Query name: %s", cfg.Name),
		fmt.Sprintf("Endpoint: %s", cfg.Endpoint),
		fmt.Sprintf("HTTP method: %s", cfg.EffectiveMethod()),
	)

	requirements(&b,
		"Use @tanstack/react-query useQuery with a stable query key.",
		fmt.Sprintf("Fetch from %s with the %s method.", cfg.Endpoint, cfg.EffectiveMethod()),
		"Surface loading and error states to the caller.",
		"Throw on non-2xx responses so React Query records the error.",
	)

	example(&b, "typescript", `import { useQuery } from '@tanstack/react-query';

export function useTodosQuery() {
  return useQuery({
    queryKey: ['todos'],
    queryFn: async () => {
      const res = await fetch('/api/todos');
      if (!res.ok) throw new Error('request failed');
      return res.json();
    },
  });
}`)

	return b.String()
}

func compileHook(t task.Task, cfg task.HookConfig) string {
	var b strings.Builder
	header(&b, t, fmt.Sprintf("a custom React hook named %q", cfg.Name))

	summary := []string{
		fmt.Sprintf("Hook name: use%s", exported(cfg.Name)),
		fmt.Sprintf("Purpose: %s", cfg.Purpose),
	}
	for _, u := range cfg.Uses {
		summary = append(summary, fmt.Sprintf("Collaborates with: %s", u))
	}
	section(&b, "Configuration", summary...)

	requirements(&b,
		"Follow the rules of hooks; no conditional hook calls.",
		"Memoize returned callbacks with useCallback.",
		"Clean up any subscriptions or timers on unmount.",
	)

	example(&b, "typescript", `import { useEffect, useState } from 'react';

export function useDebounce<T>(value: T, delayMs: number): T {
  const [debounced, setDebounced] = useState(value);
  useEffect(() => {
    const id = setTimeout(() => setDebounced(value), delayMs);
    return () => clearTimeout(id);
  }, [value, delayMs]);
  return debounced;
}`)

	return b.String()
}

func compileMiddleware(t task.Task, cfg task.MiddlewareConfig) string {
	var b strings.Builder
	header(&b, t, fmt.Sprintf("a request middleware named %q", cfg.Name))

	summary := []string{
		fmt.Sprintf("Middleware name: %s", cfg.Name),
		fmt.Sprintf("Kind: %s", cfg.Kind),
	}
	// Presence-based substitution: the token-location clause only applies
	// to auth middleware.
	if cfg.Kind == task.MiddlewareAuth {
		summary = append(summary, fmt.Sprintf("Auth token location: %s", cfg.EffectiveTokenLocation()))
	}
	section(&b, "Configuration", summary...)

	reqs := []string{
		"Export a single middleware function compatible with the app's request pipeline.",
		"Pass control to the next handler on success.",
	}
	switch cfg.Kind {
	case task.MiddlewareAuth:
		reqs = append(reqs,
			fmt.Sprintf("Read the auth token from the %s.", cfg.EffectiveTokenLocation()),
			"Reject unauthenticated requests with a 401 response.",
		)
	case task.MiddlewareLogging:
		reqs = append(reqs, "Log method, path, status and duration for every request.")
	case task.MiddlewareError:
		reqs = append(reqs, "Catch downstream errors and map them to JSON error responses.")
	}
	requirements(&b, reqs...)

	example(&b, "typescript", `export function loggingMiddleware(req: Request, next: () => Promise<Response>) {
  const start = Date.now();
  return next().finally(() => {
    console.log(req.method, req.url, Date.now() - start, 'ms');
  });
}`)

	return b.String()
}

func compileRouter(t task.Task, cfg task.RouterConfig) string {
	var b strings.Builder
	header(&b, t, "the application router")

	summary := make([]string, 0, len(cfg.Routes))
	for _, r := range cfg.Routes {
		line := fmt.Sprintf("Route: %s → %s", r.Path, r.Component)
		if r.Protected {
			line += " (requires authentication)"
		}
		summary = append(summary, line)
	}
	section(&b, "Configuration", summary...)

	requirements(&b,
		"Use react-router-dom createBrowserRouter.",
		"Declare every configured route exactly once.",
		"Wrap protected routes in an auth guard component.",
		"Export the router as the default export.",
	)

	example(&b, "typescript", `import { createBrowserRouter } from 'react-router-dom';
import Home from './pages/Home';

export default createBrowserRouter([
  { path: '/', element: <Home /> },
]);`)

	return b.String()
}

func compileProvider(t task.Task, cfg task.ProviderConfig) string {
	var b strings.Builder
	header(&b, t, fmt.Sprintf("the root App component for project %q", cfg.ProjectName))

	summary := []string{fmt.Sprintf("Project: %s", cfg.ProjectName)}
	if cfg.Description != "" {
		summary = append(summary, fmt.Sprintf("Description: %s", cfg.Description))
	}
	summary = append(summary, sortedStack(cfg.TechStack)...)
	section(&b, "Configuration", summary...)

	requirements(&b,
		"Compose all application providers (query client, router, stores) in one tree.",
		"Render the router outlet as the main content.",
		"Keep the component free of business logic.",
	)

	example(&b, "typescript", `import { QueryClient, QueryClientProvider } from '@tanstack/react-query';
import { RouterProvider } from 'react-router-dom';
import router from './AppRouter';

const queryClient = new QueryClient();

export default function App() {
  return (
    <QueryClientProvider client={queryClient}>
      <RouterProvider router={router} />
    </QueryClientProvider>
  );
}`)

	return b.String()
}

// sortedStack renders the tech stack map in stable key order so compiled
// prompts are deterministic.
func sortedStack(stack map[string]string) []string {
	if len(stack) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stack))
	for k := range stack {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("Tech stack %s: %s", k, stack[k])
	}
	return out
}

func exported(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
