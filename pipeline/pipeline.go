// Package pipeline chains agents into a sequential workflow. Each
// stage's answer is stored in the run state under the stage's output
// key, and later stages can splice stored values into their
// instructions with {key} placeholders.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/agent"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// State carries values between pipeline stages.
type State map[string]string

// placeholderPattern matches {key} references in instructions.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces {key} placeholders with state values. Unknown keys
// are left untouched so stray braces in prose survive.
func (s State) Expand(text string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := s[key]; ok {
			return v
		}
		return match
	})
}

// Sequential runs agents one after another. Stages are declared as
// agent configs; the concrete agent is assembled per run, after
// placeholder expansion.
type Sequential struct {
	name     string
	stages   []agent.Config
	provider llm.Provider
	registry tools.Registry
	opts     []agent.Option
	logger   *zap.Logger
}

// NewSequential builds a pipeline. Every stage config is validated up
// front so a bad pipeline fails at startup, not mid-run.
func NewSequential(name string, stages []agent.Config, provider llm.Provider, registry tools.Registry, logger *zap.Logger, opts ...agent.Option) (*Sequential, error) {
	if name == "" {
		return nil, fmt.Errorf("pipeline name is required")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline %s: at least one stage is required", name)
	}
	if provider == nil {
		return nil, types.NewError(types.ErrProviderNotSet, fmt.Sprintf("pipeline %s: no provider", name))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	for i := range stages {
		if err := stages[i].Validate(); err != nil {
			return nil, fmt.Errorf("pipeline %s stage %d: %w", name, i, err)
		}
	}
	return &Sequential{
		name:     name,
		stages:   stages,
		provider: provider,
		registry: registry,
		opts:     opts,
		logger:   logger.With(zap.String("pipeline", name)),
	}, nil
}

// Name returns the pipeline's name.
func (p *Sequential) Name() string { return p.name }

// StageResult pairs a stage with its agent result.
type StageResult struct {
	Agent  string        `json:"agent"`
	Result *agent.Result `json:"result"`
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	RunID  string        `json:"run_id"`
	Output string        `json:"output"`
	State  State         `json:"state"`
	Stages []StageResult `json:"stages"`
}

// Run executes every stage in order. Each stage receives the previous
// stage's answer as its input; the first stage receives the caller's
// input, which is also available to instructions as {input}. A stage
// failure aborts the run.
func (p *Sequential) Run(ctx context.Context, input string) (*RunResult, error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)
	logger := p.logger.With(zap.String("run_id", runID))
	started := time.Now()

	state := State{"input": input}
	current := input
	stageResults := make([]StageResult, 0, len(p.stages))

	for i, cfg := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline %s canceled before stage %s: %w", p.name, cfg.Name, err)
		}

		cfg.Instruction = state.Expand(cfg.Instruction)
		a, err := agent.New(cfg, p.provider, p.registry, p.logger, p.opts...)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s stage %s: %w", p.name, cfg.Name, err)
		}

		logger.Info("pipeline stage starting",
			zap.Int("stage", i+1),
			zap.String("agent", cfg.Name))
		result, err := a.Execute(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s stage %s: %w", p.name, cfg.Name, err)
		}

		key := cfg.OutputKey
		if key == "" {
			key = cfg.Name
		}
		state[key] = result.Output
		current = result.Output
		stageResults = append(stageResults, StageResult{Agent: cfg.Name, Result: result})
	}

	logger.Info("pipeline run completed",
		zap.Int("stages", len(p.stages)),
		zap.Duration("duration", time.Since(started)))

	return &RunResult{
		RunID:  runID,
		Output: current,
		State:  state,
		Stages: stageResults,
	}, nil
}
