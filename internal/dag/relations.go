package dag

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Relation declares that commands matching Consumer typically consume
// output produced by commands matching Producer, connected by Kind. This is
// the small, explicit configuration artifact the open question in §9
// resolves on: edge inference never runs against free-form natural
// language at request time, only against this declared table.
type Relation struct {
	// Producer and Consumer are expr-lang predicates evaluated against
	// an environment of {name: string} for each candidate pair. Both
	// must be satisfied for the relation to fire.
	Producer string
	Consumer string
	Kind     string
}

// DefaultRelations is the audio-centric relation table the source shows,
// generalized to the handful of command families the candidate corpus
// realistically returns: producers of device/volume listings feed
// filters, filters feed formatters.
var DefaultRelations = []Relation{
	{Producer: `name in ["pactl", "amixer", "aplay", "arecord", "lsusb", "lspci"]`, Consumer: `name in ["grep", "egrep"]`, Kind: "pipe"},
	{Producer: `name in ["grep", "egrep"]`, Consumer: `name in ["awk", "cut", "sort", "uniq"]`, Kind: "pipe"},
	{Producer: `name == "ps"`, Consumer: `name in ["grep", "egrep", "sort"]`, Kind: "pipe"},
	{Producer: `name in ["ls", "find"]`, Consumer: `name in ["grep", "egrep", "sort", "wc"]`, Kind: "pipe"},
	{Producer: `name in ["pactl", "amixer"]`, Consumer: `name in ["systemctl", "pulseaudio", "pipewire"]`, Kind: "sequence"},
}

// RelationTable compiles and evaluates relation predicates, caching each
// compiled program by its source expression so a repeated predicate is
// never recompiled.
type RelationTable struct {
	mu        sync.Mutex
	relations []Relation
	compiled  map[string]*vm.Program
}

// NewRelationTable builds a RelationTable over the given relations.
func NewRelationTable(relations []Relation) *RelationTable {
	return &RelationTable{relations: relations, compiled: make(map[string]*vm.Program)}
}

// Kind returns the edge kind the table declares from producer to
// consumer, and whether any relation matched. The first matching rule
// wins; relations are evaluated in table order.
func (rt *RelationTable) Kind(producerName, consumerName string) (kind string, matched bool) {
	for _, rel := range rt.relations {
		if rt.eval(rel.Producer, producerName) && rt.eval(rel.Consumer, consumerName) {
			return rel.Kind, true
		}
	}
	return "", false
}

func (rt *RelationTable) eval(exprStr, name string) bool {
	program := rt.getCompiled(exprStr)
	if program == nil {
		return false
	}
	out, err := expr.Run(program, map[string]any{"name": name})
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}

func (rt *RelationTable) getCompiled(exprStr string) *vm.Program {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if p, ok := rt.compiled[exprStr]; ok {
		return p
	}
	program, err := expr.Compile(exprStr, expr.Env(map[string]any{"name": ""}), expr.AsBool())
	if err != nil {
		return nil
	}
	rt.compiled[exprStr] = program
	return program
}
