package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_ClassifiesKnownStatements(t *testing.T) {
	c := NewClassifier(DefaultIntents)

	name, domainName, ok := c.Classify("The volume is too low on my laptop")
	assert.True(t, ok)
	assert.Equal(t, "volume-too-low", name)
	assert.Equal(t, "audio", domainName)

	name, _, ok = c.Classify("There is no sound coming from my speakers")
	assert.True(t, ok)
	assert.Equal(t, "no-sound-from-device", name)

	name, _, ok = c.Classify("My mic is not detected by the system")
	assert.True(t, ok)
	assert.Equal(t, "mic-not-detected", name)
}

func TestClassifier_UnknownStatementDoesNotMatch(t *testing.T) {
	c := NewClassifier(DefaultIntents)
	_, _, ok := c.Classify("my printer is out of paper")
	assert.False(t, ok)
}

func TestClassifier_EveryDefaultIntentHasARegisteredPlan(t *testing.T) {
	for _, intent := range DefaultIntents {
		_, ok := Lookup(intent.Name)
		assert.True(t, ok, "intent %q has no matching plan", intent.Name)
	}
}
