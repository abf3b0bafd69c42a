package monitoring

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/orchestrate/internal/domain"
)

// ZerologObserver writes every lifecycle event as one structured log
// line, keyed by run_id the way the orchestrator facade already tags
// its own top-level log lines.
type ZerologObserver struct {
	log zerolog.Logger
}

// NewZerologObserver wraps an already-configured logger.
func NewZerologObserver(log zerolog.Logger) *ZerologObserver {
	return &ZerologObserver{log: log}
}

func (z *ZerologObserver) OnRunStarted(runID, prompt string) {
	z.log.Info().Str("run_id", runID).Str("prompt", prompt).Msg("run started")
}

func (z *ZerologObserver) OnRunCompleted(runID string, status domain.OverallStatus, duration time.Duration) {
	z.log.Info().Str("run_id", runID).Str("status", string(status)).Dur("duration", duration).Msg("run completed")
}

func (z *ZerologObserver) OnNodeStarted(runID string, node domain.Node) {
	z.log.Debug().Str("run_id", runID).Str("node_id", node.ID).Str("command", node.Command).Msg("node started")
}

func (z *ZerologObserver) OnNodeCompleted(runID string, result domain.NodeResult, duration time.Duration) {
	ev := z.log.Info()
	if !result.Succeeded() {
		ev = z.log.Warn()
	}
	ev.Str("run_id", runID).
		Str("node_id", result.NodeID).
		Int("exit_code", result.ExitCode).
		Str("error_kind", string(result.ErrorKind)).
		Dur("duration", duration).
		Msg("node completed")
}

func (z *ZerologObserver) OnNodeCancelled(runID string, nodeID, reason string) {
	z.log.Warn().Str("run_id", runID).Str("node_id", nodeID).Str("reason", reason).Msg("node cancelled")
}
