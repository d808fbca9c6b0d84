// Package advisor assembles the Community Health & Wellness Advisor: a
// root agent that delegates to specialist sub-agents for geolocation,
// poverty statistics, air quality, mobile clinic history, and a
// three-stage insights pipeline for unstructured health reports.
package advisor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/agent"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/census"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/clinics"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/epa"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/geo"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/health"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/cache"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/pipeline"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
)

// Deps carries everything the advisor wires together. Provider and
// Index are required; nil data-source clients degrade that sub-agent
// to its empty-result behavior, and a nil Search disables web research
// in the insights pipeline.
type Deps struct {
	Provider llm.Provider
	Index    *geo.Index
	Locator  *geo.IPLocator
	Census   census.RateFetcher
	EPA      epa.ReadingFetcher
	Clinics  clinics.DeploymentFetcher
	Search   tools.SearchProvider

	// Cache, when set, serves repeated data-source tool calls with
	// identical arguments from Redis.
	Cache    *cache.Manager
	CacheTTL time.Duration

	// Model is the default model for every agent. Empty means the
	// provider default.
	Model string

	// Recorder feeds tool and agent metrics. Optional.
	ToolRecorder  tools.Recorder
	AgentRecorder agent.Recorder

	Logger *zap.Logger
}

// Advisor is the assembled agent system.
type Advisor struct {
	root     *agent.Agent
	insights *pipeline.Sequential
	registry *tools.DefaultRegistry
	logger   *zap.Logger
}

// New wires the tool registry, sub-agents, and the insights pipeline,
// and returns the advisor fronted by its root agent.
func New(deps Deps) (*Advisor, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("advisor: provider is required")
	}
	if deps.Index == nil {
		return nil, fmt.Errorf("advisor: postal index is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := tools.NewRegistry(logger)
	executor := tools.NewExecutor(registry, deps.ToolRecorder, logger)

	agentOpts := []agent.Option{agent.WithExecutor(executor)}
	if deps.AgentRecorder != nil {
		agentOpts = append(agentOpts, agent.WithRecorder(deps.AgentRecorder))
	}

	if err := registerDomainTools(registry, deps, logger); err != nil {
		return nil, err
	}

	adv := &Advisor{registry: registry, logger: logger}

	// Specialist sub-agents, each exposed as a tool for the root.
	subConfigs := []agent.Config{
		locationAgent(deps.Model),
		povertyAgent(deps.Model),
		airQualityAgent(deps.Model),
		mobileClinicAgent(deps.Model),
		summarizerAgent(deps.Model),
	}
	for _, cfg := range subConfigs {
		sub, err := agent.New(cfg, deps.Provider, registry, logger, agentOpts...)
		if err != nil {
			return nil, fmt.Errorf("advisor: build %s: %w", cfg.Name, err)
		}
		if err := agent.RegisterAsTool(registry, sub, 2*time.Minute); err != nil {
			return nil, fmt.Errorf("advisor: register %s: %w", cfg.Name, err)
		}
	}

	insights, err := pipeline.NewSequential(InsightsPipelineName,
		insightsStages(deps.Model, deps.Search != nil),
		deps.Provider, registry, logger, agentOpts...)
	if err != nil {
		return nil, fmt.Errorf("advisor: build insights pipeline: %w", err)
	}
	adv.insights = insights
	if err := pipeline.RegisterAsTool(registry, insights,
		"Analyzes an unstructured health report in three stages (structure, research, synthesize) and returns an actionable insight with a summary, problem type, and recommended action.",
		5*time.Minute); err != nil {
		return nil, fmt.Errorf("advisor: register insights pipeline: %w", err)
	}

	root, err := agent.New(rootAgent(deps.Model), deps.Provider, registry, logger, agentOpts...)
	if err != nil {
		return nil, fmt.Errorf("advisor: build root agent: %w", err)
	}
	adv.root = root

	logger.Info("advisor assembled",
		zap.Int("tools", len(registry.List())),
		zap.String("model", deps.Model))
	return adv, nil
}

func registerDomainTools(registry *tools.DefaultRegistry, deps Deps, logger *zap.Logger) error {
	// cached wraps slow-changing data-source tools in the Redis cache
	// when one is configured.
	cached := func(name string, fn tools.ToolFunc) tools.ToolFunc {
		if deps.Cache == nil {
			return fn
		}
		return cache.WrapTool(deps.Cache, name, deps.CacheTTL, fn, logger)
	}

	fn, meta := geo.NewNearestZipcodesTool(geo.NearestToolConfig{
		Index:   deps.Index,
		Locator: deps.Locator,
	}, logger)
	if err := registry.Register("nearest_zipcodes", fn, meta); err != nil {
		return fmt.Errorf("advisor: register nearest_zipcodes: %w", err)
	}

	censusClient := deps.Census
	if censusClient == nil {
		// No client still yields the -1.0 sentinel per zip.
		censusClient = census.NewClient(census.Config{}, logger)
	}
	fn, meta = census.NewPovertyLevelsTool(censusClient, logger)
	if err := registry.Register("get_poverty_levels", cached("get_poverty_levels", fn), meta); err != nil {
		return fmt.Errorf("advisor: register get_poverty_levels: %w", err)
	}

	epaClient := deps.EPA
	if epaClient == nil {
		epaClient = epa.NewClient(nil, deps.Index, logger)
	}
	fn, meta = epa.NewAirQualityTool(epaClient, logger)
	if err := registry.Register("get_air_quality", cached("get_air_quality", fn), meta); err != nil {
		return fmt.Errorf("advisor: register get_air_quality: %w", err)
	}

	clinicsClient := deps.Clinics
	if clinicsClient == nil {
		clinicsClient = clinics.NewClient(clinics.Config{}, nil, logger)
	}
	fn, meta = clinics.NewClinicDeploymentsTool(clinicsClient, logger)
	if err := registry.Register("get_clinic_deployments", cached("get_clinic_deployments", fn), meta); err != nil {
		return fmt.Errorf("advisor: register get_clinic_deployments: %w", err)
	}

	if err := health.RegisterClassifyTool(registry, logger); err != nil {
		return fmt.Errorf("advisor: register classify_health_report: %w", err)
	}

	if deps.Search != nil {
		cfg := tools.DefaultWebSearchConfig()
		cfg.Provider = deps.Search
		if err := tools.RegisterWebSearchTool(registry, cfg, logger); err != nil {
			return fmt.Errorf("advisor: register web_search: %w", err)
		}
	}
	return nil
}

// Ask runs one user request through the root agent.
func (a *Advisor) Ask(ctx context.Context, input string) (*agent.Result, error) {
	return a.root.Execute(ctx, input)
}

// AnalyzeReport runs an unstructured health report through the
// insights pipeline directly, bypassing the root agent.
func (a *Advisor) AnalyzeReport(ctx context.Context, report string) (*pipeline.RunResult, error) {
	return a.insights.Run(ctx, report)
}

// Registry exposes the assembled tool registry, mainly for inspection.
func (a *Advisor) Registry() *tools.DefaultRegistry {
	return a.registry
}
