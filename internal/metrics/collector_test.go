package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_AgentRuns(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("advisor", reg)

	c.AgentRun("root_agent", 250*time.Millisecond, true)
	c.AgentRun("root_agent", 100*time.Millisecond, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentRuns.WithLabelValues("root_agent", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentRuns.WithLabelValues("root_agent", "error")))
}

func TestCollector_ToolExecutions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("advisor", reg)

	c.ToolExecuted("get_poverty_levels", 80*time.Millisecond, true)
	c.ToolExecuted("get_poverty_levels", 80*time.Millisecond, true)
	c.ToolExecuted("nearest_zipcodes", time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.toolExecutions.WithLabelValues("get_poverty_levels", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolExecutions.WithLabelValues("nearest_zipcodes", "error")))
}

func TestCollector_LLMTokens(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("advisor", reg)

	c.LLMRequest("gemini-2.5-flash", true, 120, 40)
	c.LLMRequest("gemini-2.5-flash", true, 80, 20)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.llmRequests.WithLabelValues("gemini-2.5-flash", "success")))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("gemini-2.5-flash", "prompt")))
	assert.Equal(t, 60.0, testutil.ToFloat64(c.llmTokensUsed.WithLabelValues("gemini-2.5-flash", "completion")))
}

func TestCollector_Cache(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector("advisor", reg)

	c.CacheHit()
	c.CacheHit()
	c.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheMisses))
}
