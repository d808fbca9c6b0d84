// Package agent assembles LLM agents from declarative configs. An
// agent binds a model, an instruction, a tool allowlist, and an
// optional output schema; executing it runs the reason/act loop until
// the model produces a final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// Recorder observes agent runs, typically for metrics.
type Recorder interface {
	AgentRun(name string, duration time.Duration, success bool)
}

// Agent executes a declarative Config against an LLM provider.
type Agent struct {
	cfg      Config
	provider llm.Provider
	registry tools.Registry
	executor tools.Executor
	recorder Recorder
	logger   *zap.Logger
}

// Option configures optional Agent collaborators.
type Option func(*Agent)

// WithExecutor overrides the tool executor.
func WithExecutor(executor tools.Executor) Option {
	return func(a *Agent) { a.executor = executor }
}

// WithRecorder attaches a run recorder.
func WithRecorder(recorder Recorder) Option {
	return func(a *Agent) { a.recorder = recorder }
}

// New builds an agent from its config.
func New(cfg Config, provider llm.Provider, registry tools.Registry, logger *zap.Logger, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, types.NewError(types.ErrProviderNotSet, fmt.Sprintf("agent %s: no provider", cfg.Name))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}

	a := &Agent{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		logger:   logger.With(zap.String("agent", cfg.Name)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if len(cfg.Tools) > 0 && registry == nil {
		return nil, fmt.Errorf("agent %s: tools configured but no registry", cfg.Name)
	}
	if a.executor == nil && registry != nil {
		dr, ok := registry.(*tools.DefaultRegistry)
		if !ok {
			return nil, fmt.Errorf("agent %s: custom registries need WithExecutor", cfg.Name)
		}
		a.executor = tools.NewExecutor(dr, nil, logger)
	}
	for _, name := range cfg.Tools {
		if !registry.Has(name) {
			return nil, types.NewError(types.ErrToolNotFound,
				fmt.Sprintf("agent %s: tool %s not registered", cfg.Name, name))
		}
	}
	return a, nil
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.cfg.Name }

// Description returns the agent's configured description.
func (a *Agent) Description() string { return a.cfg.Description }

// Config returns a copy of the agent's config.
func (a *Agent) Config() Config { return a.cfg }

// Result is the outcome of one agent execution.
type Result struct {
	// Output is the final answer. With an output schema configured it
	// is guaranteed to be valid JSON.
	Output string `json:"output"`
	// Steps records the reason/act iterations taken.
	Steps []tools.Step `json:"steps,omitempty"`
	// TokensUsed is the total across all LLM calls.
	TokensUsed int `json:"tokens_used"`
}

// Execute runs the agent on one input. The instruction becomes the
// system prompt; a model override in the context (types.WithLLMModel)
// takes precedence over the configured model.
func (a *Agent) Execute(ctx context.Context, input string) (*Result, error) {
	started := time.Now()
	result, err := a.execute(ctx, input)
	if a.recorder != nil {
		a.recorder.AgentRun(a.cfg.Name, time.Since(started), err == nil)
	}
	return result, err
}

func (a *Agent) execute(ctx context.Context, input string) (*Result, error) {
	model := a.cfg.Model
	if override, ok := types.LLMModel(ctx); ok {
		model = override
	}

	req := &llm.ChatRequest{
		Model: model,
		Messages: []types.Message{
			types.NewSystemMessage(a.systemPrompt()),
			types.NewUserMessage(input),
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}
	if traceID, ok := types.TraceID(ctx); ok {
		req.TraceID = traceID
	}
	if len(a.cfg.Tools) > 0 {
		req.Tools = a.registry.Schemas(a.cfg.Tools...)
	}

	reactCfg := tools.ReActConfig{MaxIterations: a.cfg.MaxIterations}
	if rec, ok := a.recorder.(tools.LLMRecorder); ok {
		reactCfg.Recorder = rec
	}
	react := tools.NewReActExecutor(a.provider, a.executor, reactCfg, a.logger)

	resp, steps, err := react.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.cfg.Name, err)
	}

	output := resp.Choices[0].Message.Content
	if len(a.cfg.OutputSchema) > 0 {
		output, err = a.validateOutput(output)
		if err != nil {
			return nil, err
		}
	}

	tokens := 0
	for _, s := range steps {
		tokens += s.TokensUsed
	}
	a.logger.Info("agent run completed",
		zap.Int("steps", len(steps)),
		zap.Int("tokens", tokens))

	return &Result{Output: output, Steps: steps, TokensUsed: tokens}, nil
}

// systemPrompt is the instruction plus, when an output schema is set,
// a JSON-only directive carrying the schema.
func (a *Agent) systemPrompt() string {
	if len(a.cfg.OutputSchema) == 0 {
		return a.cfg.Instruction
	}
	var sb strings.Builder
	sb.WriteString(a.cfg.Instruction)
	sb.WriteString("\n\nRespond ONLY with a JSON object matching this schema, with no surrounding prose or markdown:\n")
	sb.Write(a.cfg.OutputSchema)
	return sb.String()
}

// validateOutput strips markdown code fences and checks the answer is
// a well-formed JSON document.
func (a *Agent) validateOutput(output string) (string, error) {
	cleaned := stripCodeFences(output)
	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return "", types.NewError(types.ErrSchemaViolation,
			fmt.Sprintf("agent %s: output is not valid JSON: %v", a.cfg.Name, err))
	}
	switch decoded.(type) {
	case map[string]any, []any:
		return cleaned, nil
	default:
		return "", types.NewError(types.ErrSchemaViolation,
			fmt.Sprintf("agent %s: output is not a JSON object or array", a.cfg.Name))
	}
}

// stripCodeFences removes a surrounding ```json ... ``` block, which
// models emit even when told not to.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
