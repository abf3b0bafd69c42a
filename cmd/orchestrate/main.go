// Command orchestrate resolves a natural-language problem statement
// into a DAG of shell commands, runs it, and reports the resulting
// execution trace (§6's "orchestrate solve" CLI surface).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/smilemakc/orchestrate/internal/corpus"
	"github.com/smilemakc/orchestrate/internal/dag"
	"github.com/smilemakc/orchestrate/internal/domain"
	domainerrors "github.com/smilemakc/orchestrate/internal/domain/errors"
	"github.com/smilemakc/orchestrate/internal/embedding"
	"github.com/smilemakc/orchestrate/internal/executor"
	"github.com/smilemakc/orchestrate/internal/infra/config"
	"github.com/smilemakc/orchestrate/internal/infra/logger"
	"github.com/smilemakc/orchestrate/internal/monitoring"
	"github.com/smilemakc/orchestrate/internal/orchestrator"
	"github.com/smilemakc/orchestrate/internal/reasoning"
	"github.com/smilemakc/orchestrate/internal/search"
	"github.com/smilemakc/orchestrate/internal/vectorindex"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "index" {
		return runIndex(args[1:])
	}

	fs := flag.NewFlagSet("orchestrate", flag.ContinueOnError)
	format := fs.String("format", "text", "output format: text|json")
	limit := fs.Int("limit", 0, "max candidates (0 = config default)")
	threshold := fs.Float64("threshold", -1, "similarity threshold (negative = config default)")
	explain := fs.Bool("explain", false, "include per-node/per-edge rationale in output")
	dryRun := fs.Bool("dry-run", false, "build the graph but do not execute any node")
	strict := fs.Bool("strict", false, "use strict failure propagation instead of best-effort")
	if err := fs.Parse(args); err != nil {
		return 4
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: orchestrate solve \"<prompt>\" [flags]")
		return 4
	}
	if fs.Arg(0) != "solve" {
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", fs.Arg(0))
		return 4
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: orchestrate solve \"<prompt>\" [flags]")
		return 4
	}
	prompt := fs.Arg(1)
	if strings.TrimSpace(prompt) == "" {
		fmt.Fprintln(os.Stderr, "error: prompt must not be empty")
		return 4
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel)

	observers := monitoring.NewManager()
	observers.Add(monitoring.NewZerologObserver(log))
	metrics := monitoring.NewMetricsCollector()
	observers.Add(metrics)

	embed := embedding.NewProvider(cfg.ReasoningModel, 16)
	index, err := newIndex(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	reasonClient := reasoning.NewClient(cfg.ReasoningAddr(), cfg.NodeTimeout)

	reasonParams := reasoning.Params{Model: cfg.ReasoningModel, MaxTokens: 256, Temperature: 0.2}
	searchComp := search.New(embed, index, reasonClient, search.ReasoningParams{Model: reasonParams.Model, MaxTokens: reasonParams.MaxTokens})
	builder := dag.New(nil, reasonClient, dag.ReasoningParams{Model: reasonParams.Model, MaxTokens: reasonParams.MaxTokens})
	exec := executor.New(reasonClient)

	facade := orchestrator.New(searchComp, builder, exec).WithObserver(observers)

	effLimit := cfg.SearchLimit
	if *limit > 0 {
		effLimit = *limit
	}
	effThreshold := cfg.SearchThreshold
	if *threshold >= 0 {
		effThreshold = *threshold
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(effLimit+1)*cfg.NodeTimeout+cfg.NodeTimeout)
	defer cancel()

	trace, err := facade.Solve(ctx, prompt, orchestrator.Options{
		Limit:              effLimit,
		Threshold:          effThreshold,
		MaxParallel:        cfg.MaxParallel,
		PerNodeTimeout:     cfg.NodeTimeout,
		DryRun:             *dryRun,
		Strict:             *strict,
		ReasoningModel:     reasonParams.Model,
		ReasoningMaxTokens: reasonParams.MaxTokens,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if _, ok := err.(*domainerrors.ValidationError); ok {
			return 4
		}
		return 2
	}

	printTrace(trace, *format, *explain)
	if *explain && *format != "json" {
		printMetrics(metrics)
	}
	return exitCodeFor(trace.OverallStatus)
}

func printTrace(trace domain.ExecutionTrace, format string, explain bool) {
	if format == "json" {
		out := trace
		if !explain {
			out.Reasoning = domain.Reasoning{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Printf("status: %s\n", trace.OverallStatus)
	for _, r := range trace.Results {
		fmt.Printf("- %s exit=%d error=%s\n", r.NodeID, r.ExitCode, r.ErrorKind)
		if explain && r.Interpretation != "" {
			fmt.Printf("  %s\n", r.Interpretation)
		}
	}
	if explain {
		for id, rationale := range trace.Reasoning.PlanNodes {
			fmt.Printf("node %s: %s\n", id, rationale)
		}
		for edge, rationale := range trace.Reasoning.Edges {
			fmt.Printf("edge %s: %s\n", edge, rationale)
		}
	}
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

// runIndex drives the Manual Indexer (C1): `orchestrate index [--refresh
// name]` builds (or rebuilds one entry of) the persistent vector index
// that `solve` searches against. This is the one operational entry
// point C1's build_index()/refresh() contract needs; §6 does not name
// an exit-code table for it, so it follows the plain Unix convention
// (0 success, 1 failure) instead of the solve/query status table.
func runIndex(args []string) int {
	fs := flag.NewFlagSet("orchestrate index", flag.ContinueOnError)
	refresh := fs.String("refresh", "", "re-index one command by name instead of a full rebuild")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel)

	embed := embedding.NewProvider(cfg.ReasoningModel, 16)
	ctx := context.Background()
	index, err := newIndex(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	ix := corpus.NewIndexer(corpus.AproposLister{}, corpus.ManReader{}, embed, index)

	if *refresh != "" {
		changed, err := ix.Refresh(ctx, *refresh)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		log.Info().Str("command", *refresh).Bool("changed", changed).Msg("refresh complete")
		return 0
	}

	written, skipped, err := ix.BuildIndex(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	log.Info().Int("written", written).Int("skipped", skipped).Msg("index build complete")
	return 0
}

// newIndex builds the configured Vector Index (C3) backend. A Postgres
// DSN selects BunIndex, initializing its schema on first use; an empty
// DSN falls back to an in-process MemoryIndex for local/offline use.
func newIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	if cfg.VectorIndexDSN == "" {
		return vectorindex.NewMemoryIndex(), nil
	}
	bi := vectorindex.NewBunIndex(cfg.VectorIndexDSN)
	if err := bi.InitSchema(ctx); err != nil {
		return nil, err
	}
	return bi, nil
}

// exitCodeFor maps overall_status to the process exit code table in §6.
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
