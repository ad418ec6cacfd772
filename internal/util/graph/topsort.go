// Package graph provides ordering helpers for the single-parent type
// hierarchies built from discriminator models.
package graph

// PseudoTopSort orders a forest so that every parent precedes its children.
//
// nodes is the full node set, roots the nodes without an incoming edge, and
// edges maps each parent to its direct children. Roots are consumed in FIFO
// order and a removed node's children are promoted to roots in the order
// they are listed, so the output keeps the input order as closely as the
// hierarchy allows.
//
// Every node must have at most one incoming edge. This is not checked; a node
// with two parents is emitted once per parent.
func PseudoTopSort(nodes []string, edges map[string][]string, roots []string) []string {
	queue := append(make([]string, 0, len(nodes)), roots...)

	result := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		// With a single parent per node, removing the parent leaves each
		// child without incoming edges.
		queue = append(queue, edges[node]...)
	}

	return result
}

// Roots returns the nodes that never appear as a child in edges, in the order
// they appear in nodes.
func Roots(nodes []string, edges map[string][]string) []string {
	hasParent := make(map[string]bool, len(nodes))
	for _, children := range edges {
		for _, child := range children {
			hasParent[child] = true
		}
	}

	roots := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if !hasParent[node] {
			roots = append(roots, node)
		}
	}
	return roots
}
