// Package metrics exposes Prometheus instrumentation for agent runs,
// tool executions, LLM usage, and the tool-result cache. The Collector
// satisfies the Recorder interfaces those packages accept, keeping
// them free of a Prometheus dependency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector registers and updates the advisor's metrics.
type Collector struct {
	agentRuns        *prometheus.CounterVec
	agentRunDuration *prometheus.HistogramVec

	toolExecutions   *prometheus.CounterVec
	toolExecDuration *prometheus.HistogramVec

	llmRequests   *prometheus.CounterVec
	llmTokensUsed *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewCollector creates a collector registered on reg. A nil reg uses
// the default registerer.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		agentRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Agent executions by agent name and outcome",
		}, []string{"agent", "outcome"}),

		agentRunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_run_duration_seconds",
			Help:      "Agent execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"agent"}),

		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Tool executions by tool name and outcome",
		}, []string{"tool", "outcome"}),

		toolExecDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_execution_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),

		llmRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM API requests by model and outcome",
		}, []string{"model", "outcome"}),

		llmTokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed by model and kind",
		}, []string{"model", "kind"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Tool-result cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Tool-result cache misses",
		}),
	}
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// AgentRun implements agent.Recorder.
func (c *Collector) AgentRun(name string, duration time.Duration, success bool) {
	c.agentRuns.WithLabelValues(name, outcomeLabel(success)).Inc()
	c.agentRunDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ToolExecuted implements tools.Recorder.
func (c *Collector) ToolExecuted(name string, duration time.Duration, success bool) {
	c.toolExecutions.WithLabelValues(name, outcomeLabel(success)).Inc()
	c.toolExecDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// LLMRequest records one completion call.
func (c *Collector) LLMRequest(model string, success bool, promptTokens, completionTokens int) {
	c.llmRequests.WithLabelValues(model, outcomeLabel(success)).Inc()
	if promptTokens > 0 {
		c.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// CacheHit implements cache.Recorder.
func (c *Collector) CacheHit() { c.cacheHits.Inc() }

// CacheMiss implements cache.Recorder.
func (c *Collector) CacheMiss() { c.cacheMisses.Inc() }
