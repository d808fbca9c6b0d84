package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

type agentToolArgs struct {
	Request string `json:"request"`
}

// AsTool exposes an agent as a registry tool so a coordinating agent
// can delegate to it. The wrapped agent receives the request string as
// its input; its final answer comes back as the tool result. Answers
// that are valid JSON pass through verbatim, anything else is wrapped
// as {"response": ...}.
func AsTool(a *Agent, timeout time.Duration) (tools.ToolFunc, tools.ToolMetadata) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params agentToolArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid %s arguments: %w", a.Name(), err)
		}
		if params.Request == "" {
			return nil, fmt.Errorf("request is required")
		}

		result, err := a.Execute(ctx, params.Request)
		if err != nil {
			return nil, err
		}
		if json.Valid([]byte(result.Output)) {
			return json.RawMessage(result.Output), nil
		}
		return json.Marshal(map[string]string{"response": result.Output})
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        a.Name(),
			Description: a.Description(),
			Parameters: types.NewObjectSchema().
				AddProperty("request", types.NewStringSchema().
					WithDescription("The task or question to hand to this agent, with all relevant context included.")).
				AddRequired("request").
				MustJSON(),
		},
		Timeout: timeout,
	}

	return fn, metadata
}

// RegisterAsTool registers an agent as a tool under its own name.
func RegisterAsTool(registry tools.Registry, a *Agent, timeout time.Duration) error {
	fn, metadata := AsTool(a, timeout)
	return registry.Register(a.Name(), fn, metadata)
}
