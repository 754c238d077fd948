package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCategoryCycleTreeIsClean(t *testing.T) {
	parents := map[string]string{
		"root":  "",
		"child": "root",
		"leaf":  "child",
		"other": "root",
	}

	assert.Nil(t, detectCategoryCycle(parents))
}

func TestDetectCategoryCycleSelfParent(t *testing.T) {
	parents := map[string]string{"a": "a"}

	cycle := detectCategoryCycle(parents)
	assert.Equal(t, []string{"a", "a"}, cycle)
}

func TestDetectCategoryCycleTwoNodeLoop(t *testing.T) {
	parents := map[string]string{"a": "b", "b": "a"}

	cycle := detectCategoryCycle(parents)
	require.NotNil(t, cycle)
	// Path closes on itself regardless of which node the walk started at.
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.Len(t, cycle, 3)
}

func TestDetectCategoryCycleChainIntoLoop(t *testing.T) {
	parents := map[string]string{
		"outside": "a",
		"a":       "b",
		"b":       "c",
		"c":       "a",
	}

	cycle := detectCategoryCycle(parents)
	require.NotNil(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.NotContains(t, cycle, "outside")
}

func TestDetectCategoryCycleMissingParentTerminates(t *testing.T) {
	// Dangling parent uid: the FK deals with it, not the cycle check.
	parents := map[string]string{"a": "gone"}

	assert.Nil(t, detectCategoryCycle(parents))
}

func TestDetectCategoryCycleEmpty(t *testing.T) {
	assert.Nil(t, detectCategoryCycle(nil))
}
