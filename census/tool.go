package census

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// PovertyLevelsOutput maps each zip code to its family poverty rate in
// percent. A value of -1.0 means the rate could not be fetched; an
// empty map means the whole lookup failed.
type PovertyLevelsOutput struct {
	PovertyLevels map[string]float64 `json:"poverty_levels" jsonschema_description:"Percentage of families below the poverty level, keyed by zip code. -1.0 marks unavailable data."`
}

type povertyArgs struct {
	Zipcodes []string `json:"zipcodes"`
}

// RateFetcher is the slice of Client the tool needs; tests substitute
// their own.
type RateFetcher interface {
	PovertyRates(ctx context.Context, zips []string) (map[string]float64, error)
}

// NewPovertyLevelsTool creates the get_poverty_levels ToolFunc.
func NewPovertyLevelsTool(fetcher RateFetcher, logger *zap.Logger) (tools.ToolFunc, tools.ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params povertyArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid get_poverty_levels arguments: %w", err)
		}
		if len(params.Zipcodes) == 0 {
			return nil, fmt.Errorf("zipcodes is required")
		}

		rates, err := fetcher.PovertyRates(ctx, params.Zipcodes)
		if err != nil {
			return nil, err
		}
		logger.Debug("fetched poverty levels",
			zap.Int("requested", len(params.Zipcodes)),
			zap.Int("resolved", len(rates)))
		return json.Marshal(PovertyLevelsOutput{PovertyLevels: rates})
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "get_poverty_levels",
			Description: "Fetch the percentage of families below the poverty level for a list of US zip codes, from the Census Bureau ACS 5-year survey. A rate of -1.0 means the data is unavailable.",
			Parameters: types.NewObjectSchema().
				AddProperty("zipcodes", types.NewArraySchema(types.NewStringSchema()).
					WithDescription("The 5-digit US zip codes to look up")).
				AddRequired("zipcodes").
				MustJSON(),
		},
		Timeout: 20 * time.Second,
		// The Census API throttles unauthenticated callers aggressively.
		RateLimit: &tools.RateLimitConfig{MaxCalls: 30, Window: time.Minute},
	}

	return fn, metadata
}

// RegisterPovertyLevelsTool creates and registers the tool.
func RegisterPovertyLevelsTool(registry tools.Registry, fetcher RateFetcher, logger *zap.Logger) error {
	fn, metadata := NewPovertyLevelsTool(fetcher, logger)
	return registry.Register("get_poverty_levels", fn, metadata)
}
