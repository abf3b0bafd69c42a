package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationTable_MatchesDefaultRelations(t *testing.T) {
	rt := NewRelationTable(DefaultRelations)

	kind, ok := rt.Kind("pactl", "grep")
	assert.True(t, ok)
	assert.Equal(t, "pipe", kind)

	kind, ok = rt.Kind("grep", "awk")
	assert.True(t, ok)
	assert.Equal(t, "pipe", kind)

	kind, ok = rt.Kind("pactl", "systemctl")
	assert.True(t, ok)
	assert.Equal(t, "sequence", kind)
}

func TestRelationTable_NoMatch(t *testing.T) {
	rt := NewRelationTable(DefaultRelations)
	_, ok := rt.Kind("curl", "jq")
	assert.False(t, ok)
}

func TestRelationTable_FirstMatchWins(t *testing.T) {
	rt := NewRelationTable([]Relation{
		{Producer: `name == "a"`, Consumer: `name == "b"`, Kind: "pipe"},
		{Producer: `name == "a"`, Consumer: `name == "b"`, Kind: "sequence"},
	})
	kind, ok := rt.Kind("a", "b")
	assert.True(t, ok)
	assert.Equal(t, "pipe", kind)
}

func TestRelationTable_InvalidExpressionNeverMatches(t *testing.T) {
	rt := NewRelationTable([]Relation{{Producer: `name ===`, Consumer: `true`, Kind: "pipe"}})
	_, ok := rt.Kind("anything", "anything")
	assert.False(t, ok)
}
