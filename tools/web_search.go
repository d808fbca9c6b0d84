package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

// SearchProvider is the interface for web search backends. The insights
// researcher agent uses it to find localized context for health events.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	Name() string
}

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchConfig configures the web search tool.
type WebSearchConfig struct {
	Provider   SearchProvider
	MaxResults int           // default 5
	Timeout    time.Duration // default 15s
	RateLimit  *RateLimitConfig
}

// DefaultWebSearchConfig returns sensible defaults (provider must still
// be supplied by the caller).
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		MaxResults: 5,
		Timeout:    15 * time.Second,
		RateLimit: &RateLimitConfig{
			MaxCalls: 30,
			Window:   time.Minute,
		},
	}
}

type webSearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type webSearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// NewWebSearchTool creates the web_search ToolFunc and its metadata.
func NewWebSearchTool(config WebSearchConfig, logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params webSearchArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid web_search arguments: %w", err)
		}
		if params.Query == "" {
			return nil, fmt.Errorf("query is required")
		}
		if config.Provider == nil {
			return nil, fmt.Errorf("web search provider not configured")
		}

		maxResults := config.MaxResults
		if params.MaxResults > 0 {
			maxResults = params.MaxResults
		}

		logger.Info("executing web search", zap.String("query", params.Query))
		results, err := config.Provider.Search(ctx, params.Query, maxResults)
		if err != nil {
			logger.Error("web search failed", zap.String("query", params.Query), zap.Error(err))
			return nil, fmt.Errorf("web search failed: %w", err)
		}

		return json.Marshal(webSearchResponse{Query: params.Query, Results: results})
	}

	metadata := ToolMetadata{
		Schema: types.ToolSchema{
			Name:        "web_search",
			Description: "Search the web for recent news, official reports, or community discussions. Returns titles, URLs, and snippets.",
			Parameters: types.NewObjectSchema().
				AddProperty("query", types.NewStringSchema().
					WithDescription("The search query, e.g. 'flu outbreak 90210'")).
				AddProperty("max_results", types.NewIntegerSchema().
					WithDescription("Maximum number of results to return")).
				AddRequired("query").
				MustJSON(),
		},
		Timeout:   config.Timeout,
		RateLimit: config.RateLimit,
	}

	return fn, metadata
}

// RegisterWebSearchTool creates and registers the web search tool.
func RegisterWebSearchTool(registry Registry, config WebSearchConfig, logger *zap.Logger) error {
	fn, metadata := NewWebSearchTool(config, logger)
	return registry.Register("web_search", fn, metadata)
}
