// Package orchestrator implements the Orchestrator Facade (C8): the one
// synchronous entry point that binds search, graph building, and
// execution together and owns the resulting trace.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smilemakc/orchestrate/internal/dag"
	"github.com/smilemakc/orchestrate/internal/domain"
	domainerrors "github.com/smilemakc/orchestrate/internal/domain/errors"
	"github.com/smilemakc/orchestrate/internal/executor"
	"github.com/smilemakc/orchestrate/internal/monitoring"
	"github.com/smilemakc/orchestrate/internal/search"
)

// Options fans out to the component contracts per §4.8.
type Options struct {
	Limit          int
	Threshold      float64
	MaxParallel    int
	PerNodeTimeout time.Duration
	DryRun         bool
	Strict         bool
	// ReasoningModel/ReasoningMaxTokens are threaded through to the
	// executor's result-interpretation calls (§4.7); without them every
	// interpretation request would send an empty model name to the
	// reasoning service.
	ReasoningModel     string
	ReasoningMaxTokens int
}

// Facade is the Orchestrator Facade (C8).
type Facade struct {
	search   *search.Search
	builder  *dag.Builder
	exec     *executor.Executor
	observer *monitoring.Manager
}

// New wires the facade's three collaborators.
func New(s *search.Search, b *dag.Builder, x *executor.Executor) *Facade {
	return &Facade{search: s, builder: b, exec: x}
}

// WithObserver attaches a monitoring.Manager that receives run
// started/completed notifications for every Solve call, in addition to
// the node-level notifications the Executor fans out on its own.
// Returns the receiver for chaining at construction time.
func (f *Facade) WithObserver(m *monitoring.Manager) *Facade {
	f.observer = m
	if f.exec != nil {
		f.exec.WithObserver(m)
	}
	return f
}

// Solve runs the full prompt-to-trace pipeline for one user request. A
// uuid.New() correlation id is stamped onto every log line for this
// call; it never becomes part of the graph (node ids stay small
// deterministic strings per §4.6's determinism requirement).
func (f *Facade) Solve(ctx context.Context, prompt string, opts Options) (domain.ExecutionTrace, error) {
	correlationID := uuid.New().String()
	logger := log.With().Str("run_id", correlationID).Logger()
	runStart := time.Now()

	if prompt == "" {
		return domain.ExecutionTrace{}, domainerrors.NewValidationError("prompt", "prompt must not be empty")
	}

	logger.Info().Str("prompt", prompt).Msg("solving")
	if f.observer != nil {
		f.observer.RunStarted(correlationID, prompt)
	}

	candidates, err := f.search.Query(ctx, prompt, opts.Limit, opts.Threshold)
	if err != nil {
		return domain.ExecutionTrace{}, err
	}

	trace := domain.ExecutionTrace{Prompt: prompt, Candidates: candidates}

	if len(candidates) == 0 {
		logger.Warn().Msg("no candidates returned, surfacing failed trace")
		trace.OverallStatus = domain.StatusFailed
		if f.observer != nil {
			f.observer.RunCompleted(correlationID, trace.OverallStatus, time.Since(runStart))
		}
		return trace, nil
	}

	graph := f.builder.Build(ctx, prompt, candidates)
	trace.Graph = graph
	trace.Diagnostics = graph.Diagnostics

	results, status, err := f.exec.Execute(ctx, graph, executor.Options{
		MaxParallel:        opts.MaxParallel,
		PerNodeTimeout:     opts.PerNodeTimeout,
		DryRun:             opts.DryRun,
		Strict:             opts.Strict,
		RunID:              correlationID,
		ReasoningModel:     opts.ReasoningModel,
		ReasoningMaxTokens: opts.ReasoningMaxTokens,
	})
	if err != nil {
		// An engine-level contract violation (§7 "internal"): the trace
		// carries the diagnostic and no results rather than the caller
		// seeing a bare Go error, matching Scenario E.
		logger.Error().Err(err).Msg("execution aborted on engine error")
		trace.OverallStatus = status
		trace.Diagnostics = append(trace.Diagnostics, err.Error())
		if f.observer != nil {
			f.observer.RunCompleted(correlationID, status, time.Since(runStart))
		}
		return trace, nil
	}
	trace.Results = results
	trace.OverallStatus = status
	trace.Reasoning = buildReasoning(graph, results)

	logger.Info().Str("status", string(status)).Msg("solve complete")
	if f.observer != nil {
		f.observer.RunCompleted(correlationID, status, time.Since(runStart))
	}
	return trace, nil
}

// buildReasoning collects the per-node/per-edge/per-result rationale
// already attached by C5, C6, and C7 into the aggregate view §3
// specifies for ExecutionTrace.Reasoning.
func buildReasoning(graph domain.Graph, results []domain.NodeResult) domain.Reasoning {
	planNodes := make(map[string]string, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if r, ok := n.Metadata["rationale"].(string); ok {
			planNodes[n.ID] = r
		}
	}

	edges := make(map[string]string, len(graph.Edges))
	for _, e := range graph.Edges {
		edges[e.From+"→"+e.To] = e.Rationale
	}

	executionResults := make(map[string]string, len(results))
	for _, r := range results {
		executionResults[r.NodeID] = r.Interpretation
	}

	return domain.Reasoning{PlanNodes: planNodes, Edges: edges, ExecutionResults: executionResults}
}
