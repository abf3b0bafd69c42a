// Package config loads process configuration from the environment using
// a plain getEnv(key, fallback) shape.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config is the full set of environment-tunable knobs the engine reads.
// Defaults match spec §6.
type Config struct {
	LogLevel string

	ReasoningHost  string
	ReasoningPort  int
	ReasoningModel string

	NodeTimeout     time.Duration
	StreamByteCap   int
	MaxParallel     int

	SearchLimit     int
	SearchThreshold float64

	VectorIndexDSN string
}

// Load reads Config from the environment, applying the spec's defaults
// where a variable is unset.
func Load() *Config {
	return &Config{
		LogLevel: getEnv("ORCHESTRATE_LOG_LEVEL", "info"),

		ReasoningHost:  getEnv("ORCHESTRATE_REASONING_HOST", "localhost"),
		ReasoningPort:  getEnvInt("ORCHESTRATE_REASONING_PORT", 1500),
		ReasoningModel: getEnv("ORCHESTRATE_REASONING_MODEL", "mistral"),

		NodeTimeout:   getEnvDuration("ORCHESTRATE_NODE_TIMEOUT", 30*time.Second),
		StreamByteCap: getEnvInt("ORCHESTRATE_STREAM_BYTE_CAP", 256*1024),
		MaxParallel:   getEnvInt("ORCHESTRATE_MAX_PARALLEL", defaultMaxParallel()),

		SearchLimit:     getEnvInt("ORCHESTRATE_SEARCH_LIMIT", 10),
		SearchThreshold: getEnvFloat("ORCHESTRATE_SEARCH_THRESHOLD", 0.3),

		VectorIndexDSN: getEnv("ORCHESTRATE_VECTOR_INDEX_DSN", ""),
	}
}

// defaultMaxParallel is logical CPU count clamped to [2, 16] per spec §6.
func defaultMaxParallel() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 16 {
		return 16
	}
	return n
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// ReasoningAddr is the host:port the reasoning client dials.
func (c *Config) ReasoningAddr() string {
	return c.ReasoningHost + ":" + strconv.Itoa(c.ReasoningPort)
}
