package clinics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// ClinicDeploymentsOutput lists recent mobile clinic deployments. An
// empty list means no history was found or the data source was
// unreachable.
type ClinicDeploymentsOutput struct {
	Deployments []Deployment `json:"deployments" jsonschema_description:"Recent mobile clinic deployments, newest first. Empty when no history is available."`
}

type deploymentsArgs struct {
	Zipcodes []string `json:"zipcodes"`
}

// DeploymentFetcher is the slice of Client the tool needs.
type DeploymentFetcher interface {
	RecentDeployments(ctx context.Context, zips []string) ([]Deployment, error)
}

// NewClinicDeploymentsTool creates the get_clinic_deployments ToolFunc.
func NewClinicDeploymentsTool(fetcher DeploymentFetcher, logger *zap.Logger) (tools.ToolFunc, tools.ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params deploymentsArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid get_clinic_deployments arguments: %w", err)
		}
		if len(params.Zipcodes) == 0 {
			return nil, fmt.Errorf("zipcodes is required")
		}

		deployments, err := fetcher.RecentDeployments(ctx, params.Zipcodes)
		if err != nil {
			return nil, err
		}
		logger.Debug("fetched clinic deployments",
			zap.Int("requested", len(params.Zipcodes)),
			zap.Int("deployments", len(deployments)))
		return json.Marshal(ClinicDeploymentsOutput{Deployments: deployments})
	}

	metadata := tools.ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "get_clinic_deployments",
			Description: "Fetch the most recent mobile health clinic deployments covering a list of zip codes, newest first. Returns an empty list when no history is available.",
			Parameters: types.NewObjectSchema().
				AddProperty("zipcodes", types.NewArraySchema(types.NewStringSchema()).
					WithDescription("The 5-digit US zip codes to look up")).
				AddRequired("zipcodes").
				MustJSON(),
		},
		Timeout: 45 * time.Second,
	}

	return fn, metadata
}

// RegisterClinicDeploymentsTool creates and registers the tool.
func RegisterClinicDeploymentsTool(registry tools.Registry, fetcher DeploymentFetcher, logger *zap.Logger) error {
	fn, metadata := NewClinicDeploymentsTool(fetcher, logger)
	return registry.Register("get_clinic_deployments", fn, metadata)
}
