// Package domain holds the data model shared by every subsystem of the
// orchestration engine: the command corpus, the candidate graph, and the
// execution trace returned to the caller.
package domain

import (
	"encoding/json"
	"time"
)

// CommandEntry is one indexed command. It is long-lived, written only by
// the corpus indexer, and immutable once created; the only way to change
// one is a re-index.
type CommandEntry struct {
	Name        string    `json:"name" yaml:"name"`
	Section     string    `json:"section" yaml:"section"`
	Synopsis    string    `json:"synopsis" yaml:"synopsis"`
	Description string    `json:"description" yaml:"description"`
	Embedding   []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// EmbeddingText is the exact string the indexer embeds for this entry.
// The query side never constructs this string itself (it embeds the raw
// prompt), so index and query embeddings share a vector space only
// because both sides agree on this format.
func (c CommandEntry) EmbeddingText() string {
	return c.Name + "\n" + c.Synopsis + "\n" + c.Description
}

// SearchResult is a scored candidate produced by the semantic search
// layer. It exists only for the lifetime of one orchestration call.
type SearchResult struct {
	Command   CommandEntry
	Score     float64
	Rationale string
}

// searchResultFlat mirrors §6's flattened candidate schema
// ({name, section, score, rationale}), which does not nest the command
// under its own key. Shared by both MarshalJSON and MarshalYAML so the
// two encodings never drift apart.
type searchResultFlat struct {
	Name      string  `json:"name" yaml:"name"`
	Section   string  `json:"section" yaml:"section"`
	Score     float64 `json:"score" yaml:"score"`
	Rationale string  `json:"rationale" yaml:"rationale"`
}

func (s SearchResult) flatten() searchResultFlat {
	return searchResultFlat{
		Name:      s.Command.Name,
		Section:   s.Command.Section,
		Score:     s.Score,
		Rationale: s.Rationale,
	}
}

// MarshalJSON flattens Command's identifying fields alongside Score and
// Rationale per the §6 candidate schema.
func (s SearchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.flatten())
}

// MarshalYAML applies the same flattening as MarshalJSON; yaml.v3 does
// not consult json.Marshaler, so without this query's YAML output would
// nest Command's fields under a "command" key instead of the documented
// flattened candidate shape.
func (s SearchResult) MarshalYAML() (interface{}, error) {
	return s.flatten(), nil
}

// EdgeKind distinguishes a data-carrying edge from an ordering-only one.
type EdgeKind string

const (
	EdgePipe     EdgeKind = "pipe"
	EdgeSequence EdgeKind = "sequence"
)

// Node is one DAG vertex: exactly one command, an ordered list of
// producer node ids feeding its stdin, and free-form metadata used to
// build rationale prompts.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Command  string         `json:"command" yaml:"command"`
	Args     []string       `json:"args,omitempty" yaml:"args,omitempty"`
	Inputs   []string       `json:"inputs" yaml:"inputs"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// Edge is a dependency from producer to consumer.
type Edge struct {
	From      string   `json:"from" yaml:"from"`
	To        string   `json:"to" yaml:"to"`
	Kind      EdgeKind `json:"kind" yaml:"kind"`
	Rationale string   `json:"rationale" yaml:"rationale"`
}

// Graph is the output of the DAG builder: acyclic, every edge endpoint
// resolvable to a node in Nodes.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
	// Diagnostics records non-fatal notes attached during construction,
	// e.g. which edge a cycle break removed.
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NodeByID returns the node with the given id and whether it was found.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ErrorKind classifies the node-local outcome of one execution attempt.
type ErrorKind string

const (
	ErrorNone         ErrorKind = "none"
	ErrorSpawnFailed  ErrorKind = "spawn_failed"
	ErrorTimeout      ErrorKind = "timeout"
	ErrorCancelled    ErrorKind = "cancelled"
	ErrorNonzeroExit  ErrorKind = "nonzero_exit"
)

// NodeResult is the outcome of one node execution.
type NodeResult struct {
	NodeID         string
	Stdout         []byte
	Stderr         []byte
	ExitCode       int
	StartedAt      time.Time
	FinishedAt     time.Time
	Interpretation string
	ErrorKind      ErrorKind
}

// nodeResultFlat renders Stdout/Stderr as text per §6's schema (they are
// documented as `string`, not a base64 byte blob); fields and order
// otherwise follow the results[] entry in §6 verbatim. Shared by
// MarshalJSON and MarshalYAML.
type nodeResultFlat struct {
	NodeID         string    `json:"node_id" yaml:"node_id"`
	ExitCode       int       `json:"exit_code" yaml:"exit_code"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
	Stdout         string    `json:"stdout" yaml:"stdout"`
	Stderr         string    `json:"stderr" yaml:"stderr"`
	ErrorKind      ErrorKind `json:"error_kind" yaml:"error_kind"`
	Interpretation string    `json:"interpretation" yaml:"interpretation"`
}

func (r NodeResult) flatten() nodeResultFlat {
	return nodeResultFlat{
		NodeID:         r.NodeID,
		ExitCode:       r.ExitCode,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Stdout:         string(r.Stdout),
		Stderr:         string(r.Stderr),
		ErrorKind:      r.ErrorKind,
		Interpretation: r.Interpretation,
	}
}

// MarshalJSON renders per the §6 results[] schema.
func (r NodeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.flatten())
}

// MarshalYAML mirrors MarshalJSON so query's YAML output renders stdout
// and stderr as plain text instead of yaml.v3's default base64 encoding
// of a []byte field.
func (r NodeResult) MarshalYAML() (interface{}, error) {
	return r.flatten(), nil
}

// Succeeded reports whether the result represents the ok outcome the
// spec defines: no error and a zero exit code.
func (r NodeResult) Succeeded() bool {
	return r.ErrorKind == ErrorNone && r.ExitCode == 0
}

// OverallStatus summarizes one execution trace.
type OverallStatus string

const (
	StatusOK        OverallStatus = "ok"
	StatusPartial   OverallStatus = "partial"
	StatusFailed    OverallStatus = "failed"
	StatusCancelled OverallStatus = "cancelled"
)

// Reasoning is the aggregate rationale view attached to a trace.
type Reasoning struct {
	PlanNodes        map[string]string `json:"plan_nodes" yaml:"plan_nodes"`
	Edges            map[string]string `json:"edges" yaml:"edges"`
	ExecutionResults map[string]string `json:"execution_results" yaml:"execution_results"`
}

// ExecutionTrace is the full transcript of one orchestration call. It is
// created in request scope, owned by the orchestrator facade, and its
// ownership transfers to the caller when the call returns.
type ExecutionTrace struct {
	Prompt        string         `json:"prompt" yaml:"prompt"`
	Candidates    []SearchResult `json:"candidates" yaml:"candidates"`
	Graph         Graph          `json:"graph" yaml:"graph"`
	Results       []NodeResult   `json:"results" yaml:"results"`
	OverallStatus OverallStatus  `json:"overall_status" yaml:"overall_status"`
	Reasoning     Reasoning      `json:"reasoning" yaml:"reasoning"`
	Diagnostics   []string       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// ComputeOverallStatus derives overall_status from results per the spec's
// invariant 5: ok iff every result has error_kind=none and exit_code=0.
func ComputeOverallStatus(results []NodeResult, cancelled bool) OverallStatus {
	if cancelled {
		return StatusCancelled
	}
	if len(results) == 0 {
		return StatusFailed
	}
	allOK := true
	anyOK := false
	for _, r := range results {
		if r.Succeeded() {
			anyOK = true
		} else {
			allOK = false
		}
	}
	switch {
	case allOK:
		return StatusOK
	case anyOK:
		return StatusPartial
	default:
		return StatusFailed
	}
}
