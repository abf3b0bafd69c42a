package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/smilemakc/orchestrate/internal/domain"
)

// NodeMetrics tracks cumulative per-node-id execution stats, the same
// shape a workflow engine's NodeMetrics tracks per node type, keyed
// here by node id since that is what NodeResult carries.
type NodeMetrics struct {
	NodeID         string        `json:"node_id"`
	ExecutionCount int           `json:"execution_count"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalDuration  time.Duration `json:"total_duration"`
	MinDuration    time.Duration `json:"min_duration"`
	MaxDuration    time.Duration `json:"max_duration"`
}

// AverageDuration derives the mean from TotalDuration/ExecutionCount
// rather than storing it, so callers always see a consistent figure.
func (m NodeMetrics) AverageDuration() time.Duration {
	if m.ExecutionCount == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.ExecutionCount)
}

// MetricsCollector is an Observer that accumulates per-node-id stats
// across every run it observes.
type MetricsCollector struct {
	mu    sync.RWMutex
	byNode map[string]*NodeMetrics
}

// NewMetricsCollector builds an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{byNode: make(map[string]*NodeMetrics)}
}

func (c *MetricsCollector) OnRunStarted(runID, prompt string) {}

func (c *MetricsCollector) OnRunCompleted(runID string, status domain.OverallStatus, duration time.Duration) {}

func (c *MetricsCollector) OnNodeStarted(runID string, node domain.Node) {}

func (c *MetricsCollector) OnNodeCompleted(runID string, result domain.NodeResult, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.byNode[result.NodeID]
	if !ok {
		m = &NodeMetrics{NodeID: result.NodeID, MinDuration: duration}
		c.byNode[result.NodeID] = m
	}
	m.ExecutionCount++
	if result.Succeeded() {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	m.TotalDuration += duration
	if duration < m.MinDuration || m.MinDuration == 0 {
		m.MinDuration = duration
	}
	if duration > m.MaxDuration {
		m.MaxDuration = duration
	}
}

func (c *MetricsCollector) OnNodeCancelled(runID string, nodeID, reason string) {}

// Snapshot returns a copy of the collected metrics, sorted by node id.
func (c *MetricsCollector) Snapshot() []NodeMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]NodeMetrics, 0, len(c.byNode))
	for _, m := range c.byNode {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
