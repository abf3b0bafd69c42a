// Command query resolves a known problem statement to a hand-authored
// diagnostic Plan, compiles it to a graph, and (unless --plan-only) runs
// it the same way orchestrate solve does (§6's Plan Mode CLI surface).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smilemakc/orchestrate/internal/domain"
	"github.com/smilemakc/orchestrate/internal/executor"
	"github.com/smilemakc/orchestrate/internal/infra/config"
	"github.com/smilemakc/orchestrate/internal/infra/logger"
	"github.com/smilemakc/orchestrate/internal/monitoring"
	"github.com/smilemakc/orchestrate/internal/plan"
	"github.com/smilemakc/orchestrate/internal/reasoning"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	explain := fs.Bool("explain", false, "include per-node/per-edge rationale in output")
	format := fs.String("format", "yaml", "output format: yaml|json")
	planOnly := fs.Bool("plan-only", false, "compile the graph but do not execute it")
	if err := fs.Parse(args); err != nil {
		return 4
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: query \"<problem statement>\" [flags]")
		return 4
	}
	statement := fs.Arg(0)
	if strings.TrimSpace(statement) == "" {
		fmt.Fprintln(os.Stderr, "error: problem statement must not be empty")
		return 4
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel)

	observers := monitoring.NewManager()
	observers.Add(monitoring.NewZerologObserver(log))
	metrics := monitoring.NewMetricsCollector()
	observers.Add(metrics)

	classifier := plan.NewClassifier(plan.DefaultIntents)
	name, _, ok := classifier.Classify(statement)
	if !ok {
		fmt.Fprintln(os.Stderr, "no known plan matches this statement")
		return 2
	}
	p, ok := plan.Lookup(name)
	if !ok {
		fmt.Fprintln(os.Stderr, "classified intent has no registered plan:", name)
		return 2
	}

	reasonClient := reasoning.NewClient(cfg.ReasoningAddr(), cfg.NodeTimeout)
	compiler := plan.NewCompiler(reasonClient, plan.ReasoningParams{Model: cfg.ReasoningModel, MaxTokens: 256})

	ctx := context.Background()
	graph := compiler.Compile(ctx, p)

	if *planOnly {
		printGraph(graph, *format, *explain)
		return 0
	}

	exec := executor.New(reasonClient).WithObserver(observers)
	results, status, execErr := exec.Execute(ctx, graph, executor.Options{
		MaxParallel:    cfg.MaxParallel,
		PerNodeTimeout: cfg.NodeTimeout,
		StreamByteCap:  cfg.StreamByteCap,
		ReasoningModel: cfg.ReasoningModel,
		RunID:          statement,
	})

	trace := domain.ExecutionTrace{
		Prompt:        statement,
		Graph:         graph,
		Results:       results,
		OverallStatus: status,
	}
	if execErr != nil {
		// An engine-level contract violation (§7 "internal"): the trace
		// carries the diagnostic and no results (Scenario E).
		trace.Diagnostics = append(trace.Diagnostics, execErr.Error())
	}
	printTrace(trace, *format, *explain)
	if *explain && *format != "json" {
		printMetrics(metrics)
	}
	return exitCodeFor(status)
}

// printMetrics renders the per-node execution metrics the ambient
// monitoring.MetricsCollector accumulated for this one call, as an
// --explain-only supplement to the execution trace.
func printMetrics(metrics *monitoring.MetricsCollector) {
	snapshot := metrics.Snapshot()
	if len(snapshot) == 0 {
		return
	}
	fmt.Println("metrics:")
	for _, m := range snapshot {
		fmt.Printf("  %s: count=%d success=%d failure=%d avg=%s\n", m.NodeID, m.ExecutionCount, m.SuccessCount, m.FailureCount, m.AverageDuration())
	}
}

func printGraph(graph domain.Graph, format string, explain bool) {
	if !explain {
		for i := range graph.Nodes {
			delete(graph.Nodes[i].Metadata, "rationale")
		}
		for i := range graph.Edges {
			graph.Edges[i].Rationale = ""
		}
	}
	encode(graph, format)
}

func printTrace(trace domain.ExecutionTrace, format string, explain bool) {
	if !explain {
		trace.Reasoning = domain.Reasoning{}
	}
	encode(trace, format)
}

func encode(v any, format string) {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	_ = enc.Encode(v)
}

func exitCodeFor(status domain.OverallStatus) int {
	switch status {
	case domain.StatusOK:
		return 0
	case domain.StatusPartial:
		return 1
	case domain.StatusFailed:
		return 2
	case domain.StatusCancelled:
		return 3
	default:
		return 4
	}
}
