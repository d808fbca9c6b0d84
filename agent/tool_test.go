package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
)

func TestAsTool_JSONPassthrough(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []*llm.ChatResponse{
		textResponse(`{"zipcodes":["90210","90211"]}`),
	}}
	a, err := New(Config{
		Name:        "location_agent",
		Description: "Finds nearby zip codes.",
		Instruction: "x",
	}, provider, nil, nil)
	require.NoError(t, err)

	fn, meta := AsTool(a, 0)
	assert.Equal(t, "location_agent", meta.Schema.Name)
	assert.Equal(t, "Finds nearby zip codes.", meta.Schema.Description)

	raw, err := fn(context.Background(), json.RawMessage(`{"request":"find zips near 90210"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"zipcodes":["90210","90211"]}`, string(raw))
}

func TestAsTool_ProseWrapped(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []*llm.ChatResponse{
		textResponse("Air quality is fine."),
	}}
	a, err := New(Config{Name: "aq_agent", Instruction: "x"}, provider, nil, nil)
	require.NoError(t, err)

	fn, _ := AsTool(a, 0)
	raw, err := fn(context.Background(), json.RawMessage(`{"request":"check air"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":"Air quality is fine."}`, string(raw))
}

func TestAsTool_Validation(t *testing.T) {
	t.Parallel()

	a, err := New(Config{Name: "a", Instruction: "x"}, &scriptedProvider{}, nil, nil)
	require.NoError(t, err)

	fn, _ := AsTool(a, 0)
	_, err = fn(context.Background(), json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "request is required")
}

func TestRegisterAsTool_DelegationRoundTrip(t *testing.T) {
	t.Parallel()

	registry := tools.NewRegistry(nil)

	subProvider := &scriptedProvider{responses: []*llm.ChatResponse{
		textResponse(`{"poverty_levels":{"90210":7.2}}`),
	}}
	sub, err := New(Config{
		Name:        "poverty_agent",
		Description: "Fetches poverty rates.",
		Instruction: "x",
	}, subProvider, nil, nil)
	require.NoError(t, err)
	require.NoError(t, RegisterAsTool(registry, sub, 0))

	rootProvider := &scriptedProvider{responses: []*llm.ChatResponse{
		toolCallResponse("poverty_agent", `{"request":"poverty for 90210"}`),
		textResponse("Poverty in 90210 is 7.2%."),
	}}
	root, err := New(Config{
		Name:        "root",
		Instruction: "coordinate",
		Tools:       []string{"poverty_agent"},
	}, rootProvider, registry, nil)
	require.NoError(t, err)

	result, err := root.Execute(context.Background(), "How poor is 90210?")
	require.NoError(t, err)
	assert.Equal(t, "Poverty in 90210 is 7.2%.", result.Output)

	// The sub-agent's JSON answer came back as the tool observation.
	obs := result.Steps[0].Observations
	require.Len(t, obs, 1)
	assert.JSONEq(t, `{"poverty_levels":{"90210":7.2}}`, string(obs[0].Result))
}
