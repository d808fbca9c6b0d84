package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

type pipelineToolArgs struct {
	Request string `json:"request"`
}

// AsTool exposes a pipeline as a registry tool so a coordinating agent
// can trigger a whole workflow with one call. The tool result is the
// final stage's answer, passed through verbatim when it is valid JSON.
func AsTool(p *Sequential, description string, timeout time.Duration) (tools.ToolFunc, tools.ToolMetadata) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params pipelineToolArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid %s arguments: %w", p.Name(), err)
		}
		if params.Request == "" {
			return nil, fmt.Errorf("request is required")
		}

		result, err := p.Run(ctx, params.Request)
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
			Name:        p.Name(),
			Description: description,
			Parameters: types.NewObjectSchema().
				AddProperty("request", types.NewStringSchema().
					WithDescription("The input to run the workflow on, with all relevant context included.")).
				AddRequired("request").
				MustJSON(),
		},
		Timeout: timeout,
	}

	return fn, metadata
}

// RegisterAsTool registers a pipeline as a tool under its own name.
func RegisterAsTool(registry tools.Registry, p *Sequential, description string, timeout time.Duration) error {
	fn, metadata := AsTool(p, description, timeout)
	return registry.Register(p.Name(), fn, metadata)
}
