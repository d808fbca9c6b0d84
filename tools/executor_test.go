package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

type recordingRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRecorder) ToolExecuted(name string, _ time.Duration, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func TestExecutor_Success(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("echo", echoTool, ToolMetadata{}))

	rec := &recordingRecorder{}
	e := NewExecutor(r, rec, nil)

	res := e.ExecuteOne(context.Background(), types.ToolCall{
		ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"zip":"90210"}`),
	})
	assert.False(t, res.IsError())
	assert.JSONEq(t, `{"zip":"90210"}`, string(res.Result))
	assert.Equal(t, []string{"echo"}, rec.calls)
}

func TestExecutor_ErrorBecomesString(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("failing", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("upstream unavailable")
	}, ToolMetadata{}))

	e := NewExecutor(r, nil, nil)
	res := e.ExecuteOne(context.Background(), types.ToolCall{ID: "c1", Name: "failing"})
	assert.True(t, res.IsError())
	assert.Equal(t, "upstream unavailable", res.Error)

	msg := res.ToMessage()
	assert.Equal(t, types.RoleTool, msg.Role)
	assert.Equal(t, "Error: upstream unavailable", msg.Content)
}

func TestExecutor_PanicBecomesString(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("panicking", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		panic("tool blew up")
	}, ToolMetadata{}))

	e := NewExecutor(r, nil, nil)
	res := e.ExecuteOne(context.Background(), types.ToolCall{ID: "c1", Name: "panicking"})
	assert.True(t, res.IsError())
	assert.Contains(t, res.Error, "panicked")
	assert.Contains(t, res.Error, "tool blew up")
}

func TestExecutor_MissingToolAndBadArgs(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("echo", echoTool, ToolMetadata{}))
	e := NewExecutor(r, nil, nil)

	res := e.ExecuteOne(context.Background(), types.ToolCall{ID: "c1", Name: "ghost"})
	assert.Contains(t, res.Error, "not found")

	res = e.ExecuteOne(context.Background(), types.ToolCall{
		ID: "c2", Name: "echo", Arguments: json.RawMessage(`{broken`),
	})
	assert.Contains(t, res.Error, "invalid arguments")
}

func TestExecutor_Timeout(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("slow", func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
		select {
		case <-time.After(5 * time.Second):
			return json.RawMessage(`{}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, ToolMetadata{Timeout: 50 * time.Millisecond}))

	e := NewExecutor(r, nil, nil)
	res := e.ExecuteOne(context.Background(), types.ToolCall{ID: "c1", Name: "slow"})
	assert.Contains(t, res.Error, "timeout")
}

func TestExecutor_BatchPreservesOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("echo", echoTool, ToolMetadata{}))
	e := NewExecutor(r, nil, nil)

	calls := []types.ToolCall{
		{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"n":1}`)},
		{ID: "c2", Name: "ghost"},
		{ID: "c3", Name: "echo", Arguments: json.RawMessage(`{"n":3}`)},
	}
	results := e.Execute(context.Background(), calls)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.True(t, results[1].IsError())
	assert.JSONEq(t, `{"n":3}`, string(results[2].Result))
}
