package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// ReActConfig configures the reason/act loop.
type ReActConfig struct {
	MaxIterations int         // loop bound (default 10)
	StopOnError   bool        // abort when a tool call fails
	Recorder      LLMRecorder // optional completion-call instrumentation
}

// LLMRecorder observes every completion call the loop makes.
// internal/metrics implements it; a nil recorder disables it.
type LLMRecorder interface {
	LLMRequest(model string, success bool, promptTokens, completionTokens int)
}

// ReActExecutor drives the "LLM -> tools -> LLM" conversation until the
// model answers without requesting tools.
type ReActExecutor struct {
	provider llm.Provider
	executor Executor
	config   ReActConfig
	logger   *zap.Logger
}

// NewReActExecutor creates a ReAct executor.
func NewReActExecutor(provider llm.Provider, executor Executor, config ReActConfig, logger *zap.Logger) *ReActExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxIterations == 0 {
		config.MaxIterations = 10
	}
	return &ReActExecutor{
		provider: provider,
		executor: executor,
		config:   config,
		logger:   logger,
	}
}

// Step records one loop iteration: the model's thought, the tool calls it
// issued, and the observations that came back.
type Step struct {
	StepNumber   int                `json:"step_number"`
	Thought      string             `json:"thought,omitempty"`
	Actions      []types.ToolCall   `json:"actions,omitempty"`
	Observations []types.ToolResult `json:"observations,omitempty"`
	TokensUsed   int                `json:"tokens_used,omitempty"`
}

// Execute runs the loop, returning the final response and every step taken.
func (r *ReActExecutor) Execute(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, []Step, error) {
	steps := make([]Step, 0)
	messages := append([]types.Message{}, req.Messages...)

	for i := 0; i < r.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return nil, steps, ctx.Err()
		default:
		}

		callReq := *req
		callReq.Messages = messages
		resp, err := r.provider.Completion(ctx, &callReq)
		if rec := r.config.Recorder; rec != nil {
			if err != nil {
				rec.LLMRequest(callReq.Model, false, 0, 0)
			} else {
				rec.LLMRequest(callReq.Model, true, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			}
		}
		if err != nil {
			return nil, steps, fmt.Errorf("LLM call failed at iteration %d: %w", i+1, err)
		}
		if len(resp.Choices) == 0 {
			return resp, steps, fmt.Errorf("no choices in LLM response")
		}

		choice := resp.Choices[0]
		toolCalls := choice.Message.ToolCalls

		step := Step{
			StepNumber: i + 1,
			Thought:    choice.Message.Content,
			TokensUsed: resp.Usage.TotalTokens,
		}

		if len(toolCalls) == 0 {
			steps = append(steps, step)
			r.logger.Debug("react loop completed",
				zap.Int("iterations", i+1),
				zap.String("finish_reason", choice.FinishReason))
			return resp, steps, nil
		}

		step.Actions = toolCalls
		results := r.executor.Execute(ctx, toolCalls)
		step.Observations = results

		hasError := false
		for _, res := range results {
			if res.IsError() {
				hasError = true
				r.logger.Warn("tool execution failed",
					zap.String("tool", res.Name),
					zap.String("error", res.Error))
			}
		}
		steps = append(steps, step)

		if hasError && r.config.StopOnError {
			return resp, steps, fmt.Errorf("tool execution failed, stopping loop")
		}

		messages = append(messages, choice.Message)
		for _, res := range results {
			messages = append(messages, res.ToMessage())
		}
	}

	return nil, steps, types.NewError(types.ErrMaxIterations,
		fmt.Sprintf("max iterations reached (%d)", r.config.MaxIterations))
}
