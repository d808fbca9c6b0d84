package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// Executor runs tool calls issued by the model.
type Executor interface {
	Execute(ctx context.Context, calls []types.ToolCall) []types.ToolResult
	ExecuteOne(ctx context.Context, call types.ToolCall) types.ToolResult
}

// Recorder receives tool execution observations. internal/metrics
// implements it; a nil Recorder disables instrumentation.
type Recorder interface {
	ToolExecuted(name string, duration time.Duration, success bool)
}

// DefaultExecutor executes calls against a DefaultRegistry.
type DefaultExecutor struct {
	registry *DefaultRegistry
	recorder Recorder
	logger   *zap.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *DefaultRegistry, recorder Recorder, logger *zap.Logger) *DefaultExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultExecutor{
		registry: registry,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute runs all calls concurrently and returns results in call order.
func (e *DefaultExecutor) Execute(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c types.ToolCall) {
			defer wg.Done()
			results[idx] = e.ExecuteOne(ctx, c)
		}(i, call)
	}
	wg.Wait()

	return results
}

// ExecuteOne runs a single call with its registered timeout. Failures are
// returned inside the result, never as a panic or Go error.
func (e *DefaultExecutor) ExecuteOne(ctx context.Context, call types.ToolCall) types.ToolResult {
	start := time.Now()
	result := types.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
	}

	finish := func() types.ToolResult {
		result.Duration = time.Since(start)
		if e.recorder != nil {
			e.recorder.ToolExecuted(call.Name, result.Duration, result.Error == "")
		}
		return result
	}

	fn, meta, err := e.registry.Get(call.Name)
	if err != nil {
		result.Error = err.Error()
		e.logger.Error("tool not found", zap.String("name", call.Name))
		return finish()
	}

	if !e.registry.allow(call.Name) {
		result.Error = fmt.Sprintf("rate limit exceeded for tool %s", call.Name)
		e.logger.Warn("tool rate limit exceeded", zap.String("name", call.Name))
		return finish()
	}

	if len(call.Arguments) > 0 {
		var tmp any
		if err := json.Unmarshal(call.Arguments, &tmp); err != nil {
			result.Error = fmt.Sprintf("invalid arguments: %s", err.Error())
			e.logger.Error("invalid tool arguments", zap.String("name", call.Name), zap.Error(err))
			return finish()
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, meta.Timeout)
	defer cancel()

	type outcome struct {
		res json.RawMessage
		err error
	}
	// Buffered so the goroutine can exit even when the timeout fires first.
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				e.logger.Error("tool panicked",
					zap.String("name", call.Name),
					zap.Any("panic", rec))
				select {
				case done <- outcome{nil, fmt.Errorf("tool %s panicked: %v", call.Name, rec)}:
				case <-execCtx.Done():
				}
			}
		}()
		res, err := fn(execCtx, call.Arguments)
		select {
		case done <- outcome{res, err}:
		case <-execCtx.Done():
		}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			result.Error = out.err.Error()
			e.logger.Error("tool execution failed",
				zap.String("name", call.Name),
				zap.Error(out.err))
		} else {
			result.Result = out.res
			e.logger.Debug("tool executed",
				zap.String("name", call.Name),
				zap.Duration("duration", time.Since(start)))
		}
	case <-execCtx.Done():
		result.Error = fmt.Sprintf("execution timeout after %s", meta.Timeout)
		e.logger.Error("tool execution timeout",
			zap.String("name", call.Name),
			zap.Duration("timeout", meta.Timeout))
	}

	return finish()
}
