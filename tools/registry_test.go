package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

func echoTool(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
	return args, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	err := r.Register("echo", echoTool, ToolMetadata{
		Schema: types.ToolSchema{Description: "echoes input", Parameters: json.RawMessage(`{"type":"object"}`)},
	})
	require.NoError(t, err)

	fn, meta, err := r.Get("echo")
	require.NoError(t, err)
	assert.NotNil(t, fn)
	assert.Equal(t, "echo", meta.Schema.Name)
	assert.Equal(t, 30*time.Second, meta.Timeout)
	assert.True(t, r.Has("echo"))
}

func TestRegistry_DuplicateAndMismatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("echo", echoTool, ToolMetadata{}))
	assert.Error(t, r.Register("echo", echoTool, ToolMetadata{}))

	err := r.Register("other", echoTool, ToolMetadata{
		Schema: types.ToolSchema{Name: "mismatch"},
	})
	assert.Error(t, err)
}

func TestRegistry_GetMissing(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	_, _, err := r.Get("nope")
	require.Error(t, err)
	assert.Equal(t, types.ErrToolNotFound, types.GetErrorCode(err))
}

func TestRegistry_Schemas(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("a", echoTool, ToolMetadata{}))
	require.NoError(t, r.Register("b", echoTool, ToolMetadata{}))

	schemas := r.Schemas("b", "missing", "a")
	require.Len(t, schemas, 2)
	assert.Equal(t, "b", schemas[0].Name)
	assert.Equal(t, "a", schemas[1].Name)
	assert.Len(t, r.List(), 2)
}

func TestRegistry_RateLimit(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	require.NoError(t, r.Register("limited", echoTool, ToolMetadata{
		RateLimit: &RateLimitConfig{MaxCalls: 2, Window: time.Hour},
	}))

	assert.True(t, r.allow("limited"))
	assert.True(t, r.allow("limited"))
	assert.False(t, r.allow("limited"))

	// Tools without a configured limit are never throttled.
	require.NoError(t, r.Register("free", echoTool, ToolMetadata{}))
	for i := 0; i < 100; i++ {
		assert.True(t, r.allow("free"))
	}
}
