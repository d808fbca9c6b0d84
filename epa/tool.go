package epa

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// AirQualityOutput maps each zip code to its latest AQI reading. Zips
// with no available data are absent; an empty map means air quality
// data could not be fetched at all.
type AirQualityOutput struct {
	AirQuality map[string]Reading `json:"air_quality" jsonschema_description:"Latest AQI reading keyed by zip code. Missing zips had no available data."`
}

type airQualityArgs struct {
	Zipcodes []string `json:"zipcodes"`
}

// ReadingFetcher is the slice of Client the tool needs.
type ReadingFetcher interface {
	Readings(ctx context.Context, zips []string) (map[string]Reading, error)
}

// NewAirQualityTool creates the get_air_quality ToolFunc.
func NewAirQualityTool(fetcher ReadingFetcher, logger *zap.Logger) (tools.ToolFunc, tools.ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params airQualityArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid get_air_quality arguments: %w", err)
		}
		if len(params.Zipcodes) == 0 {
			return nil, fmt.Errorf("zipcodes is required")
		}

		readings, err := fetcher.Readings(ctx, params.Zipcodes)
		if err != nil {
			return nil, err
		}
		logger.Debug("fetched air quality readings",
			zap.Int("requested", len(params.Zipcodes)),
			zap.Int("resolved", len(readings)))
		return json.Marshal(AirQualityOutput{AirQuality: readings})
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "get_air_quality",
			Description: "Fetch the most recent air quality index (AQI) reading for each zip code, from the nearest EPA monitoring site. Zips with no available data are omitted from the result.",
			Parameters: types.NewObjectSchema().
				AddProperty("zipcodes", types.NewArraySchema(types.NewStringSchema()).
					WithDescription("The 5-digit US zip codes to look up")).
				AddRequired("zipcodes").
				MustJSON(),
		},
		Timeout: 60 * time.Second,
	}

	return fn, metadata
}

// RegisterAirQualityTool creates and registers the tool.
func RegisterAirQualityTool(registry tools.Registry, fetcher ReadingFetcher, logger *zap.Logger) error {
	fn, metadata := NewAirQualityTool(fetcher, logger)
	return registry.Register("get_air_quality", fn, metadata)
}
