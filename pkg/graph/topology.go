package graph

import (
	"github.com/docpipe/docpipe/pkg/models"
)

type visitColor uint8

const (
	unvisited visitColor = iota
	visiting
	visited
)

// findCycle runs a three-color depth-first sweep over every node, not just the
// sources, so cycles in disconnected components are also caught. Hitting a
// node already marked visiting while walking its own descendants is a
// back-edge; the offending node is returned.
func (g *WorkflowGraph) findCycle() (models.NodeID, bool) {
	colors := make(map[models.NodeID]visitColor, len(g.nodes))

	neighbors := make(map[models.NodeID][]models.NodeID, len(g.nodes))
	for _, edge := range g.edges {
		neighbors[edge.From] = append(neighbors[edge.From], edge.To)
	}

	var walk func(id models.NodeID) (models.NodeID, bool)

	walk = func(id models.NodeID) (models.NodeID, bool) {
		colors[id] = visiting

		for _, next := range neighbors[id] {
			switch colors[next] {
			case visiting:
				return next, true
			case unvisited:
				if cycleNode, found := walk(next); found {
					return cycleNode, found
				}
			case visited:
			}
		}

		colors[id] = visited

		return models.NodeID{}, false
	}

	for id := range g.nodes {
		if colors[id] != unvisited {
			continue
		}

		if cycleNode, found := walk(id); found {
			return cycleNode, true
		}
	}

	return models.NodeID{}, false
}

// TopologicalOrder linearizes the graph with Kahn's algorithm: seed a queue
// with every zero-in-degree node, repeatedly pop one into the result and
// decrement its neighbors' in-degrees, enqueueing any that reach zero. If the
// result is shorter than the node count, a cycle kept some nodes' in-degrees
// positive and the call fails.
func (g *WorkflowGraph) TopologicalOrder() ([]models.NodeID, error) {
	inDegree := make(map[models.NodeID]int, len(g.nodes))
	neighbors := make(map[models.NodeID][]models.NodeID, len(g.nodes))

	for id := range g.nodes {
		inDegree[id] = 0
	}

	for _, edge := range g.edges {
		inDegree[edge.To]++
		neighbors[edge.From] = append(neighbors[edge.From], edge.To)
	}

	queue := make([]models.NodeID, 0, len(g.nodes))

	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]models.NodeID, 0, len(g.nodes))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range neighbors[id] {
			inDegree[next]--

			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, invalidDefinition("graph contains a cycle; topological order does not exist")
	}

	return order, nil
}
