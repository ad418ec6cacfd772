package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudoTopSort_SingleRoot(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	edges := map[string][]string{"A": {"B", "C"}}

	result := PseudoTopSort(nodes, edges, []string{"A"})

	require.Len(t, result, 3)
	assert.Equal(t, "A", result[0])
	assert.ElementsMatch(t, []string{"B", "C"}, result[1:])
}

func TestPseudoTopSort_Forest(t *testing.T) {
	nodes := []string{"Person", "Organization", "Teacher", "School", "Student", "Substitute"}
	edges := map[string][]string{
		"Person":       {"Teacher", "Student"},
		"Organization": {"School"},
		"Teacher":      {"Substitute"},
	}

	result := PseudoTopSort(nodes, edges, Roots(nodes, edges))

	assert.Equal(t, []string{"Person", "Organization", "Teacher", "Student", "School", "Substitute"}, result)
	assertParentsFirst(t, result, edges)
}

func TestPseudoTopSort_NoEdges(t *testing.T) {
	nodes := []string{"x", "y", "z"}

	result := PseudoTopSort(nodes, nil, nodes)

	assert.Equal(t, nodes, result)
}

func TestPseudoTopSort_Empty(t *testing.T) {
	assert.Empty(t, PseudoTopSort(nil, nil, nil))
}

func TestPseudoTopSort_DoesNotMutateRoots(t *testing.T) {
	roots := []string{"A"}
	edges := map[string][]string{"A": {"B"}}

	PseudoTopSort([]string{"A", "B"}, edges, roots)

	assert.Equal(t, []string{"A"}, roots)
}

func TestRoots(t *testing.T) {
	nodes := []string{"C", "A", "B"}
	edges := map[string][]string{"A": {"C"}}

	assert.Equal(t, []string{"A", "B"}, Roots(nodes, edges))
}

func assertParentsFirst(t *testing.T, order []string, edges map[string][]string) {
	t.Helper()

	position := make(map[string]int, len(order))
	for i, node := range order {
		position[node] = i
	}
	for parent, children := range edges {
		for _, child := range children {
			assert.Less(t, position[parent], position[child], "%s must precede %s", parent, child)
		}
	}
}
