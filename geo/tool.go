package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// NearestZipcodesOutput is what the nearest_zipcodes tool returns. An
// empty Zipcodes slice is the failure sentinel: downstream agents treat
// it as "location could not be determined" instead of aborting.
type NearestZipcodesOutput struct {
	LocationName string   `json:"location_name" jsonschema_description:"A human-readable label for the origin location, e.g. 'Beverly Hills, CA' or the zip code itself."`
	Zipcodes     []string `json:"zipcodes" jsonschema_description:"The nearest zip codes, ordered by distance. Empty when the location could not be determined."`
}

type nearestZipcodesArgs struct {
	ZipCode  string `json:"zip_code,omitempty"`
	Location string `json:"location,omitempty"`
}

// NearestToolConfig configures the nearest_zipcodes tool.
type NearestToolConfig struct {
	Index   *Index
	Locator *IPLocator
	// Count is how many zip codes to return. Defaults to 5.
	Count int
}

// NewNearestZipcodesTool creates the nearest_zipcodes ToolFunc. The
// model supplies a zip code or a place name, both resolved against the
// offline index; with neither, the caller's IP location decides the
// origin. All failures degrade to the empty-output sentinel so a batch
// of agent calls never aborts on a geocoding hiccup.
func NewNearestZipcodesTool(cfg NearestToolConfig, logger *zap.Logger) (tools.ToolFunc, tools.ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Count <= 0 {
		cfg.Count = 5
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params nearestZipcodesArgs
		if len(args) > 0 {
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid nearest_zipcodes arguments: %w", err)
			}
		}
		if cfg.Index == nil {
			return nil, fmt.Errorf("postal index not configured")
		}

		out := resolveNearest(ctx, cfg, params, logger)
		return json.Marshal(out)
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "nearest_zipcodes",
			Description: "Find the zip codes nearest to a location. Pass a 5-digit zip_code to search around it, or a location name like 'Beverly Hills, CA'; omit both to use the caller's approximate location from their IP address. Returns an empty zipcodes list when the location cannot be determined.",
			Parameters: types.NewObjectSchema().
				AddProperty("zip_code", types.NewStringSchema().
					WithDescription("Optional 5-digit US zip code to search around.")).
				AddProperty("location", types.NewStringSchema().
					WithDescription("Optional US place name, e.g. 'Beverly Hills' or 'Miami, FL'. Ignored when zip_code is set. Omit both to auto-detect the caller's location.")).
				MustJSON(),
		},
		Timeout: 15 * time.Second,
	}

	return fn, metadata
}

func resolveNearest(ctx context.Context, cfg NearestToolConfig, params nearestZipcodesArgs, logger *zap.Logger) NearestZipcodesOutput {
	if zip := params.ZipCode; zip != "" {
		places, err := cfg.Index.NearestToZip(zip, cfg.Count)
		if err != nil {
			logger.Warn("zip lookup failed", zap.String("zip", zip), zap.Error(err))
			return NearestZipcodesOutput{}
		}
		return NearestZipcodesOutput{
			LocationName: placeLabel(cfg.Index, zip),
			Zipcodes:     placeZips(places),
		}
	}

	if params.Location != "" {
		origin, ok := cfg.Index.FindPlace(params.Location)
		if !ok {
			logger.Warn("location not in postal index", zap.String("location", params.Location))
			return NearestZipcodesOutput{}
		}
		return NearestZipcodesOutput{
			LocationName: origin.PlaceName + ", " + origin.State,
			Zipcodes:     placeZips(cfg.Index.Nearest(origin.Latitude, origin.Longitude, cfg.Count)),
		}
	}

	if cfg.Locator == nil {
		logger.Warn("no zip code given and ip locator not configured")
		return NearestZipcodesOutput{}
	}
	loc, err := cfg.Locator.Locate(ctx)
	if err != nil {
		logger.Warn("ip location lookup failed", zap.Error(err))
		return NearestZipcodesOutput{}
	}

	var places []Place
	if loc.Postal != "" {
		if places, err = cfg.Index.NearestToZip(loc.Postal, cfg.Count); err != nil {
			places = nil
		}
	}
	if places == nil {
		places = cfg.Index.Nearest(loc.Latitude, loc.Longitude, cfg.Count)
	}
	return NearestZipcodesOutput{
		LocationName: loc.Label(),
		Zipcodes:     placeZips(places),
	}
}

func placeLabel(idx *Index, zip string) string {
	if p, ok := idx.Lookup(zip); ok && p.PlaceName != "" {
		return p.PlaceName + ", " + p.State
	}
	return zip
}

func placeZips(places []Place) []string {
	zips := make([]string, len(places))
	for i, p := range places {
		zips[i] = p.ZipCode
	}
	return zips
}

// RegisterNearestZipcodesTool creates and registers the tool.
func RegisterNearestZipcodesTool(registry tools.Registry, cfg NearestToolConfig, logger *zap.Logger) error {
	fn, metadata := NewNearestZipcodesTool(cfg, logger)
	return registry.Register("nearest_zipcodes", fn, metadata)
}
