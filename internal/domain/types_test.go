package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestComputeOverallStatus_AllSucceeded(t *testing.T) {
	results := []NodeResult{
		{NodeID: "n0", ErrorKind: ErrorNone, ExitCode: 0},
		{NodeID: "n1", ErrorKind: ErrorNone, ExitCode: 0},
	}
	assert.Equal(t, StatusOK, ComputeOverallStatus(results, false))
}

func TestComputeOverallStatus_Partial(t *testing.T) {
	results := []NodeResult{
		{NodeID: "n0", ErrorKind: ErrorNone, ExitCode: 0},
		{NodeID: "n1", ErrorKind: ErrorNonzeroExit, ExitCode: 1},
	}
	assert.Equal(t, StatusPartial, ComputeOverallStatus(results, false))
}

func TestComputeOverallStatus_AllFailed(t *testing.T) {
	results := []NodeResult{
		{NodeID: "n0", ErrorKind: ErrorTimeout, ExitCode: -1},
	}
	assert.Equal(t, StatusFailed, ComputeOverallStatus(results, false))
}

func TestComputeOverallStatus_Cancelled(t *testing.T) {
	results := []NodeResult{
		{NodeID: "n0", ErrorKind: ErrorNone, ExitCode: 0},
	}
	assert.Equal(t, StatusCancelled, ComputeOverallStatus(results, true))
}

func TestComputeOverallStatus_NoResultsIsFailed(t *testing.T) {
	assert.Equal(t, StatusFailed, ComputeOverallStatus(nil, false))
}

func TestNodeResult_Succeeded(t *testing.T) {
	assert.True(t, NodeResult{ErrorKind: ErrorNone, ExitCode: 0}.Succeeded())
	assert.False(t, NodeResult{ErrorKind: ErrorNone, ExitCode: 1}.Succeeded())
	assert.False(t, NodeResult{ErrorKind: ErrorTimeout, ExitCode: 0}.Succeeded())
}

func TestCommandEntry_EmbeddingText(t *testing.T) {
	c := CommandEntry{Name: "grep", Synopsis: "grep [options] pattern", Description: "search text"}
	assert.Equal(t, "grep\ngrep [options] pattern\nsearch text", c.EmbeddingText())
}

func TestSearchResult_MarshalJSON_FlattensCommand(t *testing.T) {
	sr := SearchResult{
		Command:   CommandEntry{Name: "ps", Section: "1", Description: "report process status"},
		Score:     0.42,
		Rationale: "lists running processes",
	}
	b, err := json.Marshal(sr)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "ps", m["name"])
	assert.Equal(t, "1", m["section"])
	assert.Equal(t, 0.42, m["score"])
	assert.Equal(t, "lists running processes", m["rationale"])
	_, hasCommandKey := m["command"]
	assert.False(t, hasCommandKey, "candidate JSON must not nest the command under its own key")
}

func TestNodeResult_MarshalJSON_StdoutIsText(t *testing.T) {
	r := NodeResult{
		NodeID:     "n0",
		Stdout:     []byte("hello\n"),
		Stderr:     []byte(""),
		ExitCode:   0,
		StartedAt:  time.Unix(0, 0).UTC(),
		FinishedAt: time.Unix(1, 0).UTC(),
		ErrorKind:  ErrorNone,
	}
	b, err := json.Marshal(r)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "hello\n", m["stdout"])
	assert.Equal(t, "n0", m["node_id"])
	assert.Equal(t, "none", m["error_kind"])
}

func TestSearchResult_MarshalYAML_FlattensCommand(t *testing.T) {
	sr := SearchResult{
		Command:   CommandEntry{Name: "ps", Section: "1"},
		Score:     0.42,
		Rationale: "lists running processes",
	}
	b, err := yaml.Marshal(sr)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, yaml.Unmarshal(b, &m))
	assert.Equal(t, "ps", m["name"])
	assert.Equal(t, "1", m["section"])
	_, hasCommandKey := m["command"]
	assert.False(t, hasCommandKey, "candidate YAML must not nest the command under its own key")
}

func TestNodeResult_MarshalYAML_StdoutIsText(t *testing.T) {
	r := NodeResult{
		NodeID:    "n0",
		Stdout:    []byte("hello\n"),
		ExitCode:  0,
		ErrorKind: ErrorNone,
	}
	b, err := yaml.Marshal(r)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, yaml.Unmarshal(b, &m))
	assert.Equal(t, "hello\n", m["stdout"])
	assert.Equal(t, "n0", m["node_id"])
}

func TestGraph_NodeByID(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "n0", Command: "ls"}, {ID: "n1", Command: "grep"}}}

	n, ok := g.NodeByID("n1")
	assert.True(t, ok)
	assert.Equal(t, "grep", n.Command)

	_, ok = g.NodeByID("missing")
	assert.False(t, ok)
}
