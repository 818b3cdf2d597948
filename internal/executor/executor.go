// Package executor drives a plan through the backend: one task at a time,
// compile the prompt, await the full reply, extract the deliverable. The
// executor is the sole writer of the artifact list.
package executor

import (
	"context"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/extract"
	"github.com/felixgeelhaar/appforge/internal/log"
	"github.com/felixgeelhaar/appforge/internal/plan"
	"github.com/felixgeelhaar/appforge/internal/prompt"
	"github.com/felixgeelhaar/appforge/internal/task"
)

// Observer receives per-task lifecycle notifications. Notifications fire in
// execution order from the executing goroutine; implementations must not
// block for long.
type Observer interface {
	// TaskStarted fires before the backend call for a task. index is the
	// zero-based position in the plan, total the plan length.
	TaskStarted(t task.Task, index, total int)

	// TaskCompleted fires after the artifact for a task was extracted.
	TaskCompleted(t task.Task, artifact task.Artifact, index, total int)
}

// nopObserver is the default when no observer is configured.
type nopObserver struct{}

func (nopObserver) TaskStarted(task.Task, int, int)                  {}
func (nopObserver) TaskCompleted(task.Task, task.Artifact, int, int) {}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver sets the lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(e *Executor) {
		if obs != nil {
			e.observer = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSystemPrompt overrides the system prompt sent with every task.
func WithSystemPrompt(system string) Option {
	return func(e *Executor) {
		e.systemPrompt = system
	}
}

// defaultSystemPrompt frames every task for the backend.
const defaultSystemPrompt = "You are an expert React and TypeScript engineer. " +
	"Reply with exactly one fenced code block containing the complete requested file."

// Executor runs plans sequentially against an injected backend client.
type Executor struct {
	backend      backend.Client
	observer     Observer
	logger       *log.Logger
	systemPrompt string
}

// New constructs an Executor around a backend client.
func New(client backend.Client, opts ...Option) *Executor {
	e := &Executor{
		backend:      client,
		observer:     nopObserver{},
		logger:       log.DefaultLogger(),
		systemPrompt: defaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every task of the plan in order. Artifacts are appended in
// plan order. The first compile or backend failure halts the run; partial
// artifact lists are never returned. There is at most one in-flight backend
// call at any time.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) ([]task.Artifact, error) {
	tasks := p.Tasks()
	artifacts := make([]task.Artifact, 0, len(tasks))

	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.observer.TaskStarted(t, i, len(tasks))
		e.logger.Debug("executing task", "task", t.ID, "output", t.OutputFile)

		compiled, err := prompt.Compile(t)
		if err != nil {
			e.logger.WithError(err).Error("prompt compilation failed", "task", t.ID)
			return nil, err
		}

		resp, err := e.backend.Generate(ctx, &backend.GenerateRequest{
			Prompt:       compiled,
			SystemPrompt: e.systemPrompt,
		})
		if err != nil {
			e.logger.WithError(err).Error("backend generation failed", "task", t.ID)
			return nil, err
		}

		extraction := extract.Extract(resp.Content)
		if extraction.LowConfidence {
			e.logger.Warn("no fenced block in reply, using raw text",
				"task", t.ID, "model", resp.Model)
		}

		artifact := task.NewArtifact(t, extraction.Source, extraction.LowConfidence)
		artifacts = append(artifacts, artifact)

		e.observer.TaskCompleted(t, artifact, i, len(tasks))
		e.logger.Debug("task complete",
			"task", t.ID,
			"digest", artifact.Digest,
			"latency", resp.Latency,
			"output_tokens", resp.OutputTokens)
	}

	return artifacts, nil
}
