package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsMatchSpec(t *testing.T) {
	for _, key := range []string{
		"ORCHESTRATE_LOG_LEVEL", "ORCHESTRATE_REASONING_HOST", "ORCHESTRATE_REASONING_PORT",
		"ORCHESTRATE_REASONING_MODEL", "ORCHESTRATE_NODE_TIMEOUT", "ORCHESTRATE_STREAM_BYTE_CAP",
		"ORCHESTRATE_MAX_PARALLEL", "ORCHESTRATE_SEARCH_LIMIT", "ORCHESTRATE_SEARCH_THRESHOLD",
		"ORCHESTRATE_VECTOR_INDEX_DSN",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost", cfg.ReasoningHost)
	assert.Equal(t, 1500, cfg.ReasoningPort)
	assert.Equal(t, "mistral", cfg.ReasoningModel)
	assert.Equal(t, 30*time.Second, cfg.NodeTimeout)
	assert.Equal(t, 256*1024, cfg.StreamByteCap)
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.InDelta(t, 0.3, cfg.SearchThreshold, 1e-9)
	assert.GreaterOrEqual(t, cfg.MaxParallel, 2)
	assert.LessOrEqual(t, cfg.MaxParallel, 16)
	assert.Equal(t, "localhost:1500", cfg.ReasoningAddr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORCHESTRATE_REASONING_HOST", "reasoning.internal")
	t.Setenv("ORCHESTRATE_REASONING_PORT", "9000")
	t.Setenv("ORCHESTRATE_SEARCH_THRESHOLD", "0.7")

	cfg := Load()
	assert.Equal(t, "reasoning.internal:9000", cfg.ReasoningAddr())
	assert.InDelta(t, 0.7, cfg.SearchThreshold, 1e-9)
}
