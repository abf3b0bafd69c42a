package plan

import (
	"strings"

	"github.com/expr-lang/expr"
)

// Intent names one diagnostic flow a free-form problem statement can
// match.
type Intent struct {
	Name    string
	Domain  string
	// Match is an expr-lang predicate evaluated against
	// {statement: string} (lowercased). The same declarative-predicate
	// approach as the DAG builder's relation table, applied here to
	// intent classification instead of edge inference.
	Match string
}

// DefaultIntents classifies problem statements into the audio plan
// library below.
var DefaultIntents = []Intent{
	{Name: "volume-too-low", Domain: "audio", Match: `statement contains "volume" && (statement contains "low" || statement contains "quiet")`},
	{Name: "no-sound-from-device", Domain: "audio", Match: `(statement contains "no sound" || statement contains "no audio") || (statement contains "silent" && statement contains "speaker")`},
	{Name: "mic-not-detected", Domain: "audio", Match: `statement contains "mic" && (statement contains "not detected" || statement contains "not working" || statement contains "no input")`},
}

// Classifier maps a problem statement to the first matching intent.
type Classifier struct {
	intents []Intent
}

// NewClassifier builds a Classifier over the given intents.
func NewClassifier(intents []Intent) *Classifier {
	return &Classifier{intents: intents}
}

// Classify returns the first matching intent's name, or ok=false if no
// declared intent matches the statement. Matching, like the DAG
// builder's relation table, is config-driven rather than inferred.
func (c *Classifier) Classify(statement string) (name, domainName string, ok bool) {
	env := map[string]any{"statement": strings.ToLower(statement)}
	for _, intent := range c.intents {
		program, err := expr.Compile(intent.Match, expr.Env(env), expr.AsBool())
		if err != nil {
			continue
		}
		out, err := expr.Run(program, env)
		if err != nil {
			continue
		}
		if matched, _ := out.(bool); matched {
			return intent.Name, intent.Domain, true
		}
	}
	return "", "", false
}
