package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

type classifyArgs struct {
	Text string `json:"text"`
}

// NewClassifyTool creates the classify_health_report ToolFunc. The
// structuring agent uses it to seed its analysis with deterministic
// keyword matches before the model refines the result.
func NewClassifyTool(logger *zap.Logger) (tools.ToolFunc, tools.ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params classifyArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid classify_health_report arguments: %w", err)
		}
		if params.Text == "" {
			return nil, fmt.Errorf("text is required")
		}

		analysis := Classify(params.Text)
		logger.Debug("classified health report",
			zap.Int("events", len(analysis.HealthEvents)))
		return json.Marshal(analysis)
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "classify_health_report",
			Description: "Scan unstructured health report text for known issue signals (outbreaks, environmental risks, access problems) and the zip codes mentioned. Returns a HealthAnalysis JSON object; health_events is empty when nothing matches.",
			Parameters: types.NewObjectSchema().
				AddProperty("text", types.NewStringSchema().
					WithDescription("The unstructured health report text to classify")).
				AddRequired("text").
				MustJSON(),
		},
		Timeout: 5 * time.Second,
	}

	return fn, metadata
}

// RegisterClassifyTool creates and registers the classifier tool.
func RegisterClassifyTool(registry tools.Registry, logger *zap.Logger) error {
	fn, metadata := NewClassifyTool(logger)
	return registry.Register("classify_health_report", fn, metadata)
}
