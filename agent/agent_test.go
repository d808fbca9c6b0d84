package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// scriptedProvider replays a fixed sequence of responses.
type scriptedProvider struct {
	responses []*llm.ChatResponse
	requests  []*llm.ChatRequest
}

func (s *scriptedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: types.NewAssistantMessage("done")}}}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedProvider) Stream(context.Context, *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (s *scriptedProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (s *scriptedProvider) Name() string                        { return "scripted" }
func (s *scriptedProvider) SupportsNativeFunctionCalling() bool { return true }

func textResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{{FinishReason: "stop", Message: types.NewAssistantMessage(text)}},
	}
}

func toolCallResponse(name, args string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{{
			Message: types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{
				ID: "call_1", Name: name, Arguments: json.RawMessage(args),
			}}),
		}},
	}
}

func echoTool(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
	return args, nil
}

func TestAgent_Execute(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []*llm.ChatResponse{
		textResponse("All clear in 90210."),
	}}

	a, err := New(Config{
		Name:        "advisor",
		Model:       "gemini-2.5-flash",
		Instruction: "You advise on community health.",
	}, provider, nil, nil)
	require.NoError(t, err)

	result, err := a.Execute(context.Background(), "How is 90210 doing?")
	require.NoError(t, err)
	assert.Equal(t, "All clear in 90210.", result.Output)

	req := provider.requests[0]
	assert.Equal(t, "gemini-2.5-flash", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, types.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "You advise on community health.", req.Messages[0].Content)
}

func TestAgent_ModelOverrideFromContext(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("ok")}}
	a, err := New(Config{Name: "a", Model: "gemini-2.5-flash", Instruction: "x"}, provider, nil, nil)
	require.NoError(t, err)

	ctx := types.WithLLMModel(context.Background(), "gemini-2.5-pro")
	_, err = a.Execute(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", provider.requests[0].Model)
}

func TestAgent_ToolAllowlist(t *testing.T) {
	t.Parallel()

	registry := tools.NewRegistry(nil)
	require.NoError(t, registry.Register("echo", echoTool, tools.ToolMetadata{}))
	require.NoError(t, registry.Register("other", echoTool, tools.ToolMetadata{}))

	provider := &scriptedProvider{responses: []*llm.ChatResponse{
		toolCallResponse("echo", `{"zip":"90210"}`),
		textResponse("done"),
	}}

	a, err := New(Config{
		Name:        "a",
		Instruction: "x",
		Tools:       []string{"echo"},
	}, provider, registry, nil)
	require.NoError(t, err)

	result, err := a.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Output)
	assert.Len(t, result.Steps, 2)

	// Only the allowlisted tool schema is sent to the model.
	schemas := provider.requests[0].Tools
	require.Len(t, schemas, 1)
	assert.Equal(t, "echo", schemas[0].Name)
}

func TestAgent_UnknownToolRejectedAtBuild(t *testing.T) {
	t.Parallel()

	registry := tools.NewRegistry(nil)
	_, err := New(Config{Name: "a", Instruction: "x", Tools: []string{"missing"}},
		&scriptedProvider{}, registry, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrToolNotFound, types.GetErrorCode(err))
}

func TestAgent_OutputSchemaEnforced(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[struct {
		Summary string `json:"summary"`
	}]()

	t.Run("valid json passes", func(t *testing.T) {
		t.Parallel()
		provider := &scriptedProvider{responses: []*llm.ChatResponse{
			textResponse("```json\n{\"summary\":\"ok\"}\n```"),
		}}
		a, err := New(Config{Name: "a", Instruction: "x", OutputSchema: schema}, provider, nil, nil)
		require.NoError(t, err)

		result, err := a.Execute(context.Background(), "go")
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":"ok"}`, result.Output)

		// The schema directive rides along in the system prompt.
		assert.Contains(t, provider.requests[0].Messages[0].Content, "Respond ONLY with a JSON object")
	})

	t.Run("prose rejected", func(t *testing.T) {
		t.Parallel()
		provider := &scriptedProvider{responses: []*llm.ChatResponse{
			textResponse("Sorry, I cannot produce JSON."),
		}}
		a, err := New(Config{Name: "a", Instruction: "x", OutputSchema: schema}, provider, nil, nil)
		require.NoError(t, err)

		_, err = a.Execute(context.Background(), "go")
		require.Error(t, err)
		assert.Equal(t, types.ErrSchemaViolation, types.GetErrorCode(err))
	})
}

func TestAgent_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Instruction: "x"}, &scriptedProvider{}, nil, nil)
	assert.ErrorContains(t, err, "name is required")

	_, err = New(Config{Name: "a"}, &scriptedProvider{}, nil, nil)
	assert.ErrorContains(t, err, "instruction is required")

	_, err = New(Config{Name: "a", Instruction: "x"}, nil, nil, nil)
	assert.Equal(t, types.ErrProviderNotSet, types.GetErrorCode(err))
}

type runRecorder struct {
	names     []string
	successes []bool
}

func (r *runRecorder) AgentRun(name string, _ time.Duration, success bool) {
	r.names = append(r.names, name)
	r.successes = append(r.successes, success)
}

func TestAgent_Recorder(t *testing.T) {
	t.Parallel()

	rec := &runRecorder{}
	provider := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("ok")}}
	a, err := New(Config{Name: "watched", Instruction: "x"}, provider, nil, nil, WithRecorder(rec))
	require.NoError(t, err)

	_, err = a.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"watched"}, rec.names)
	assert.Equal(t, []bool{true}, rec.successes)
}

// llmRunRecorder also observes the completion calls, like the metrics
// collector does.
type llmRunRecorder struct {
	runRecorder
	models []string
	tokens []int
}

func (r *llmRunRecorder) LLMRequest(model string, _ bool, promptTokens, completionTokens int) {
	r.models = append(r.models, model)
	r.tokens = append(r.tokens, promptTokens+completionTokens)
}

func TestAgent_RecorderSeesLLMRequests(t *testing.T) {
	t.Parallel()

	resp := textResponse("ok")
	resp.Usage = llm.ChatUsage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42}
	provider := &scriptedProvider{responses: []*llm.ChatResponse{resp}}

	rec := &llmRunRecorder{}
	a, err := New(Config{Name: "watched", Model: "gemini-2.5-flash", Instruction: "x"},
		provider, nil, nil, WithRecorder(rec))
	require.NoError(t, err)

	_, err = a.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.5-flash"}, rec.models)
	assert.Equal(t, []int{42}, rec.tokens)
}

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}

func TestSchemaFor(t *testing.T) {
	t.Parallel()

	type out struct {
		Summary string `json:"summary" jsonschema_description:"Short summary."`
		Count   int    `json:"count"`
	}
	raw := SchemaFor[out]()

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "summary")
	assert.Contains(t, props, "count")
}
