package reasoning

import "fmt"

// The three prompts below are the only reasoning prompts anywhere in
// this engine (§9 design note: "centralize them behind named functions
// so regressions are testable. Never let subsystems hand-build prompts
// inline."). C5, C6, and C7 each call exactly one of these.

// SelectionRationalePrompt asks why a candidate command is relevant to
// the user's prompt.
func SelectionRationalePrompt(userPrompt, commandName, synopsis string) string {
	return fmt.Sprintf(
		"Given the problem %q and the command %q (usage: %s), explain in one sentence why this command is relevant.",
		userPrompt, commandName, synopsis,
	)
}

// EdgeRationalePrompt asks what data flows across one DAG edge and what
// the downstream command does with it.
func EdgeRationalePrompt(from, to string, kind string) string {
	return fmt.Sprintf(
		"Given the upstream command %q and the downstream command %q connected by a %s edge, explain what data flows between them and what the downstream command does with it.",
		from, to, kind,
	)
}

// ResultInterpretationPrompt asks what one node's (truncated) output
// tells the user about their problem.
func ResultInterpretationPrompt(command, truncatedOutput string) string {
	return fmt.Sprintf(
		"Given the command %q and its output below, explain in one sentence what this tells the user about their problem.\n\nOutput:\n%s",
		command, truncatedOutput,
	)
}
