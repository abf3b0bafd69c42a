// Package executor implements the Executor (C7): running a DAG under
// bounded parallelism, capturing process streams, and attaching
// per-result interpretation.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/orchestrate/internal/domain"
	domainerrors "github.com/smilemakc/orchestrate/internal/domain/errors"
	"github.com/smilemakc/orchestrate/internal/monitoring"
	"github.com/smilemakc/orchestrate/internal/reasoning"
)

// gracePeriod is how long a terminated process gets to exit before the
// executor escalates to a kill signal (§4.7 "terminate-then-kill
// escalation on a short grace period").
const gracePeriod = 3 * time.Second

// Options configures one Execute call (§4.7's opts).
type Options struct {
	MaxParallel    int
	PerNodeTimeout time.Duration
	DryRun         bool
	// Strict selects the strict failure-propagation mode; the zero value
	// is best-effort, the spec's default.
	Strict bool
	// StreamByteCap bounds how much of each stream is captured and, in
	// turn, how much is ever handed to the reasoning client.
	StreamByteCap int
	ReasoningModel string
	ReasoningMaxTokens int
	// RunID identifies this call to an attached observer (monitoring.Manager);
	// the zero value is a harmless empty label for callers that don't care.
	RunID string
}

// Executor is the Executor (C7).
type Executor struct {
	reason   *reasoning.Client
	observer *monitoring.Manager
}

// New wires the Executor's one required collaborator. Use WithObserver
// to additionally fan node lifecycle events out to a monitoring.Manager;
// it stays nil (a no-op) for callers, such as tests, that don't need it.
func New(reason *reasoning.Client) *Executor {
	return &Executor{reason: reason}
}

// WithObserver attaches a monitoring.Manager that receives node
// started/completed/cancelled notifications for every Execute call on
// this Executor. Returns the receiver for chaining at construction time.
func (e *Executor) WithObserver(m *monitoring.Manager) *Executor {
	e.observer = m
	return e
}

// notifyNodeStarted is a nil-safe fan-out to the attached observer.
func (e *Executor) notifyNodeStarted(runID string, node domain.Node) {
	if e.observer != nil {
		e.observer.NodeStarted(runID, node)
	}
}

func (e *Executor) notifyNodeCompleted(runID string, result domain.NodeResult, duration time.Duration) {
	if e.observer != nil {
		e.observer.NodeCompleted(runID, result, duration)
	}
}

func (e *Executor) notifyNodeCancelled(runID, nodeID, reason string) {
	if e.observer != nil {
		e.observer.NodeCancelled(runID, nodeID, reason)
	}
}

// nodeState tracks one node's progress through the scheduler.
type nodeState struct {
	node      domain.Node
	started   bool
	result    *domain.NodeResult
	// pipeFrom is the one producer whose stdout feeds this node's stdin.
	// When several pipe edges target the node, the last one in
	// graph.Edges is used; the other producers only gate readiness.
	pipeFrom string
	// producerStdout holds this node's captured stdout once it has run,
	// so a pipe consumer admitted later can read it as stdin.
	producerStdout []byte
}

// Execute runs graph to completion (or cancellation) and returns one
// NodeResult per node plus the overall status (§3 invariant: results
// length always equals node count). A non-nil error means the graph
// itself violated the builder's contract (§7's "internal" class, e.g. an
// edge referencing a node id absent from graph.Nodes); no process is
// ever spawned in that case.
func (e *Executor) Execute(ctx context.Context, graph domain.Graph, opts Options) ([]domain.NodeResult, domain.OverallStatus, error) {
	if err := validateGraph(graph); err != nil {
		log.Error().Err(err).Msg("graph failed validation, refusing to execute")
		return nil, domain.StatusFailed, err
	}

	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	if opts.StreamByteCap <= 0 {
		opts.StreamByteCap = 256 * 1024
	}

	states := make(map[string]*nodeState, len(graph.Nodes))
	for _, n := range graph.Nodes {
		states[n.ID] = &nodeState{node: n}
	}
	for _, edg := range graph.Edges {
		if edg.Kind == domain.EdgePipe {
			if s, ok := states[edg.To]; ok {
				s.pipeFrom = edg.From
			}
		}
	}

	producers := inboundByKind(graph)
	pipeDescendants := descendantsByKind(graph, domain.EdgePipe)
	allDescendants := descendantsByKind(graph, "") // any edge kind

	order := make([]string, len(graph.Nodes))
	for i, n := range graph.Nodes {
		order[i] = n.ID
	}
	sort.Strings(order) // admission ties broken by node id, deterministically

	resultCh := make(chan domain.NodeResult, len(graph.Nodes))
	inFlight := 0
	externallyCancelled := false
	failedNodes := make(map[string]bool)

	isCancelledExternally := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	cascadeTargets := func(failedID string) map[string]bool {
		if opts.Strict {
			return allDescendants[failedID]
		}
		return pipeDescendants[failedID]
	}

	ready := func(id string) bool {
		for _, p := range producers[id] {
			if states[p].result == nil {
				return false
			}
		}
		return true
	}

	dispatch := func() {
		for _, id := range order {
			s := states[id]
			if s.started || s.result != nil {
				continue
			}
			if inFlight >= opts.MaxParallel {
				return
			}
			if !ready(id) {
				continue
			}
			var producerStdout []byte
			if s.pipeFrom != "" {
				producerStdout = states[s.pipeFrom].producerStdout
			}
			s.started = true
			inFlight++
			e.notifyNodeStarted(opts.RunID, s.node)
			go e.runNode(ctx, s, producerStdout, opts, resultCh)
		}
	}

	markCancelled := func(id string, reason string) {
		s := states[id]
		if s.started || s.result != nil {
			return
		}
		s.started = true
		r := domain.NodeResult{NodeID: id, ErrorKind: domain.ErrorCancelled}
		s.result = &r
		e.notifyNodeCancelled(opts.RunID, id, reason)
	}

	applyCascades := func() {
		if externallyCancelled || isCancelledExternally() {
			externallyCancelled = true
			for _, id := range order {
				markCancelled(id, "external cancellation")
			}
			return
		}
		for failedID := range failedNodes {
			for id := range cascadeTargets(failedID) {
				markCancelled(id, "upstream failure")
			}
		}
	}

	for {
		applyCascades()
		dispatch()

		remaining := 0
		for _, s := range states {
			if s.result == nil {
				remaining++
			}
		}
		if remaining == 0 {
			break
		}
		if inFlight == 0 {
			// Nothing running and nothing left to dispatch: every
			// remaining node is blocked on a producer that will never
			// resolve. validateGraph already rejects dangling edges, so
			// this is a last-resort guard against any other scheduler
			// invariant violation rather than an expected path.
			log.Error().Msg("scheduler stalled with unresolved nodes and no in-flight work")
			for id, s := range states {
				if s.result == nil {
					markCancelled(id, "stalled")
				}
			}
			break
		}

		r := <-resultCh
		inFlight--
		states[r.NodeID].result = &r
		e.notifyNodeCompleted(opts.RunID, r, r.FinishedAt.Sub(r.StartedAt))
		if !r.Succeeded() {
			failedNodes[r.NodeID] = true
		}
	}

	results := make([]domain.NodeResult, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		results = append(results, *states[n.ID].result)
	}

	status := domain.ComputeOverallStatus(results, externallyCancelled)
	return results, status, nil
}

// validateGraph checks that every edge endpoint resolves to a node in
// the graph. A dangling edge is a builder contract violation (§7:
// "internal" — engine-level, not node-local), so it is caught here
// before any node is admitted rather than surfacing as a nil-map lookup
// once the scheduler starts dispatching.
func validateGraph(graph domain.Graph) error {
	known := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		known[n.ID] = true
	}
	for _, e := range graph.Edges {
		if !known[e.From] {
			return domainerrors.NewEngineError("executor.Execute", fmt.Sprintf("edge references unknown producer node %q", e.From), nil)
		}
		if !known[e.To] {
			return domainerrors.NewEngineError("executor.Execute", fmt.Sprintf("edge references unknown consumer node %q", e.To), nil)
		}
	}
	return nil
}

// runNode executes one node (or synthesizes a dry-run result) and sends
// its NodeResult on out. It is the only place the executor spawns an OS
// process.
func (e *Executor) runNode(ctx context.Context, s *nodeState, stdin []byte, opts Options, out chan<- domain.NodeResult) {
	node := s.node
	started := time.Now()

	if opts.DryRun {
		out <- domain.NodeResult{
			NodeID:     node.ID,
			ExitCode:   0,
			StartedAt:  started,
			FinishedAt: time.Now(),
			ErrorKind:  domain.ErrorNone,
		}
		return
	}

	// The happens-before guarantee (§5) means a pipe producer has
	// already finished by the time this node is admitted, so its full
	// stdout is available to read here rather than streamed
	// concurrently.

	nodeCtx, cancel := context.WithTimeout(ctx, effectiveTimeout(opts.PerNodeTimeout))
	defer cancel()

	result := e.spawn(nodeCtx, ctx, node, stdin, opts)
	result.StartedAt = started
	result.FinishedAt = time.Now()

	if result.ErrorKind != domain.ErrorSpawnFailed {
		result.Interpretation = e.interpret(ctx, node, result, opts)
	}

	s.producerStdout = result.Stdout
	out <- result
}

func effectiveTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}

// spawn runs one child process and classifies its outcome per §7's
// node-local error kinds.
func (e *Executor) spawn(nodeCtx, parentCtx context.Context, node domain.Node, stdin []byte, opts Options) domain.NodeResult {
	cmd := exec.CommandContext(nodeCtx, node.Command, node.Args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = gracePeriod

	if len(stdin) > 0 {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdoutBuf, stderrBuf boundedBuffer
	stdoutBuf.limit = opts.StreamByteCap
	stderrBuf.limit = opts.StreamByteCap
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return domain.NodeResult{NodeID: node.ID, ErrorKind: domain.ErrorSpawnFailed, ExitCode: -1}
	}

	err := cmd.Wait()

	switch {
	case err == nil:
		return domain.NodeResult{NodeID: node.ID, ExitCode: 0, ErrorKind: domain.ErrorNone, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	case nodeCtx.Err() == context.DeadlineExceeded:
		return domain.NodeResult{NodeID: node.ID, ExitCode: -1, ErrorKind: domain.ErrorTimeout, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	case parentCtx.Err() != nil:
		return domain.NodeResult{NodeID: node.ID, ExitCode: -1, ErrorKind: domain.ErrorCancelled, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	default:
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return domain.NodeResult{NodeID: node.ID, ExitCode: exitCode, ErrorKind: domain.ErrorNonzeroExit, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	}
}

// interpret requests a result interpretation from the reasoning client,
// falling back to an empty string on unavailable (§4.7).
func (e *Executor) interpret(ctx context.Context, node domain.Node, result domain.NodeResult, opts Options) string {
	text, ok := e.reason.Complete(ctx, reasoning.ResultInterpretationPrompt(fmt.Sprintf("%s %v", node.Command, node.Args), string(result.Stdout)), reasoning.Params{
		Model:       opts.ReasoningModel,
		MaxTokens:   opts.ReasoningMaxTokens,
		Temperature: 0.2,
	})
	if !ok {
		return ""
	}
	return text
}

// boundedBuffer caps how many bytes it retains, matching the per-stream
// byte cap the spec requires for both the trace and the reasoning
// client's input; it always reports success to the writer so the child
// process is never blocked once the cap is hit.
type boundedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

var _ io.Writer = (*boundedBuffer)(nil)

// inboundByKind returns, per node id, the ids of all nodes with an edge
// into it (any kind) — this is "all producers" readiness depends on.
func inboundByKind(graph domain.Graph) map[string][]string {
	out := make(map[string][]string, len(graph.Nodes))
	for _, n := range graph.Nodes {
		out[n.ID] = nil
	}
	for _, e := range graph.Edges {
		out[e.To] = append(out[e.To], e.From)
	}
	return out
}

// descendantsByKind computes, for every node, the set of nodes
// transitively reachable via edges of the given kind (or any kind when
// kind is ""). Used to compute cascade targets for strict vs
// best-effort failure propagation.
func descendantsByKind(graph domain.Graph, kind domain.EdgeKind) map[string]map[string]bool {
	children := make(map[string][]string, len(graph.Nodes))
	for _, e := range graph.Edges {
		if kind == "" || e.Kind == kind {
			children[e.From] = append(children[e.From], e.To)
		}
	}

	memo := make(map[string]map[string]bool, len(graph.Nodes))
	var compute func(id string) map[string]bool
	compute = func(id string) map[string]bool {
		if d, ok := memo[id]; ok {
			return d
		}
		set := make(map[string]bool)
		memo[id] = set // break cycles defensively; graph is acyclic by contract
		for _, c := range children[id] {
			set[c] = true
			for d := range compute(c) {
				set[d] = true
			}
		}
		return set
	}

	out := make(map[string]map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		out[n.ID] = compute(n.ID)
	}
	return out
}
