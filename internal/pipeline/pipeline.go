// Package pipeline orchestrates a full generation run: analyze the request
// into a project configuration, build the plan, execute it, and assemble the
// result. Progress is emitted as stream events through a caller-supplied
// sink, so the same pipeline serves the HTTP handler and the local CLI.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/executor"
	"github.com/felixgeelhaar/appforge/internal/extract"
	"github.com/felixgeelhaar/appforge/internal/log"
	"github.com/felixgeelhaar/appforge/internal/plan"
	"github.com/felixgeelhaar/appforge/internal/stream"
	"github.com/felixgeelhaar/appforge/internal/task"
)

// Phase names for the non-task phases of a run. Task phases use the task ID.
const (
	PhaseAnalysis = "analysis"
	PhasePlan     = "plan"
)

// Request is the external build request. The JSON field names are the
// camelCase wire contract; the yaml tags cover the project file.
type Request struct {
	ProjectName  string            `json:"projectName" yaml:"project_name"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Requirements Requirements      `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	TechStack    map[string]string `json:"techStack,omitempty" yaml:"tech_stack,omitempty"`
}

// Requirements is the request's requirements list. On the wire it accepts
// either a list or one free-text string, which is split into lines; it
// always marshals back as a list.
type Requirements []string

// UnmarshalJSON implements the string-or-list decoding.
func (r *Requirements) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = splitRequirements(single)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

func splitRequirements(text string) Requirements {
	var out Requirements
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Emit receives progress events. A nil Emit is allowed and drops them.
type Emit func(stream.Event)

// Pipeline runs generation requests against one backend client.
type Pipeline struct {
	backend backend.Client
	logger  *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Pipeline around a backend client.
func New(client backend.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend: client,
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one generation request end to end. On success the returned
// result carries every artifact keyed by task ID; on failure the error
// describes the first thing that went wrong and no partial result is
// returned.
func (p *Pipeline) Run(ctx context.Context, req Request, emit Emit) (*stream.GenerationResult, error) {
	return p.run(ctx, req, nil, emit)
}

// RunWithConfig executes a request against an explicit project layout,
// skipping the analysis phase.
func (p *Pipeline) RunWithConfig(ctx context.Context, req Request, cfg plan.ProjectConfig, emit Emit) (*stream.GenerationResult, error) {
	return p.run(ctx, req, &cfg, emit)
}

func (p *Pipeline) run(ctx context.Context, req Request, explicit *plan.ProjectConfig, emit Emit) (*stream.GenerationResult, error) {
	if emit == nil {
		emit = func(stream.Event) {}
	}

	projectID := uuid.NewString()
	logger := p.logger.With("project_id", projectID, "project", req.ProjectName)

	var cfg plan.ProjectConfig
	if explicit != nil {
		cfg = *explicit
		if cfg.ProjectName == "" {
			cfg.ProjectName = req.ProjectName
		}
	} else {
		emit(stream.PhaseStart(PhaseAnalysis, "analyzing request"))
		cfg = p.analyze(ctx, req, logger)
		emit(stream.PhaseComplete(PhaseAnalysis, "request analyzed"))
	}

	emit(stream.PhaseStart(PhasePlan, "building plan"))
	pl, err := plan.Build(cfg)
	if err != nil {
		logger.WithError(err).Error("plan building failed")
		return nil, err
	}
	emit(stream.PhaseComplete(PhasePlan, fmt.Sprintf("%d tasks planned", pl.Len())))

	exec := executor.New(p.backend,
		executor.WithLogger(logger),
		executor.WithObserver(&emitObserver{emit: emit}),
	)

	artifacts, err := exec.Execute(ctx, pl)
	if err != nil {
		logger.WithError(err).Error("execution failed")
		return nil, err
	}

	phases := make(map[string]stream.ArtifactPayload, len(artifacts))
	for _, a := range artifacts {
		phases[a.TaskID] = stream.ArtifactPayload{
			Filename:      a.Filename,
			Source:        a.Source,
			Digest:        a.Digest,
			LowConfidence: a.LowConfidence,
		}
	}

	logger.Info("generation complete", "artifacts", len(artifacts))

	return &stream.GenerationResult{
		ProjectID:       projectID,
		Success:         true,
		PlanFingerprint: pl.Fingerprint(),
		Phases:          phases,
	}, nil
}

// emitObserver bridges executor lifecycle notifications onto the event wire.
// Each task is its own phase, keyed by task ID.
type emitObserver struct {
	emit Emit
}

func (o *emitObserver) TaskStarted(t task.Task, index, total int) {
	o.emit(stream.PhaseStart(t.ID, fmt.Sprintf("generating %s", t.OutputFile)))
}

func (o *emitObserver) TaskCompleted(t task.Task, a task.Artifact, index, total int) {
	o.emit(stream.PhaseProgress(t.ID, fmt.Sprintf("%s ready", a.Filename), (index+1)*100/total))
	o.emit(stream.PhaseComplete(t.ID, fmt.Sprintf("generated %s", a.Filename)))
}

// analyze asks the backend to propose a project configuration for the
// request. The reply goes through the same fence extractor as code replies.
// An unreachable backend or unparseable proposal falls back to the
// deterministic default configuration, so analysis can degrade but never
// fail a run.
func (p *Pipeline) analyze(ctx context.Context, req Request, logger *log.Logger) plan.ProjectConfig {
	resp, err := p.backend.Generate(ctx, &backend.GenerateRequest{
		Prompt:       analysisPrompt(req),
		SystemPrompt: analysisSystemPrompt,
	})
	if err != nil {
		logger.WithError(err).Warn("analysis call failed, using default configuration")
		return DefaultConfig(req)
	}

	extraction := extract.Extract(resp.Content)

	var cfg plan.ProjectConfig
	if err := json.Unmarshal([]byte(extraction.Source), &cfg); err != nil {
		logger.WithError(err).Warn("analysis reply unparseable, using default configuration")
		return DefaultConfig(req)
	}

	// The request owns project identity; the proposal only fills the layers.
	cfg.ProjectName = req.ProjectName
	cfg.Description = req.Description
	if len(cfg.TechStack) == 0 {
		cfg.TechStack = req.TechStack
	}
	return cfg
}

// DefaultConfig derives a deterministic minimal configuration from a
// request: project metadata only, which yields a one-task plan.
func DefaultConfig(req Request) plan.ProjectConfig {
	return plan.ProjectConfig{
		ProjectName: req.ProjectName,
		Description: req.Description,
		TechStack:   req.TechStack,
	}
}

const analysisSystemPrompt = "You are an expert React application architect. " +
	"Reply with exactly one fenced code block containing a JSON object and nothing else."

func analysisPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Propose the architecture for a React + TypeScript application named %q.\n", req.ProjectName)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	if len(req.Requirements) > 0 {
		b.WriteString("Requirements:\n")
		for i, r := range req.Requirements {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
	}
	b.WriteString(`
Reply with one fenced JSON object with these optional keys:
- "stores": [{"name", "state": [{"name","type"}], "actions": ["..."]}]
- "queries": [{"name", "endpoint", "method"}]
- "hooks": [{"name", "purpose", "uses": ["..."]}]
- "middleware": [{"name", "kind": "auth"|"logging"|"error", "token_location"}]
- "routes": [{"path", "component", "protected"}]
- "use_router": true|false

Declare "depends_on" on an entry only when its code imports another entry,
using task IDs like "store:session". Omit layers the application does not need.
`)
	return b.String()
}
