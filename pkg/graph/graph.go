package graph

import (
	"encoding/json"

	"github.com/docpipe/docpipe/pkg/models"
)

// WorkflowGraph owns the node map and edge list of one pipeline. It is an
// exclusively-owned in-memory value: construction, mutation and validation are
// synchronous and perform no I/O. Concurrent pipeline runs use independent
// instances.
type WorkflowGraph struct {
	nodes    map[models.NodeID]models.NodeData
	edges    []models.Edge
	metadata map[string]any
}

// New creates an empty graph.
func New() *WorkflowGraph {
	return &WorkflowGraph{
		nodes: make(map[models.NodeID]models.NodeData),
	}
}

// AddNode inserts data under a freshly generated id and returns the id.
func (g *WorkflowGraph) AddNode(data models.NodeData) models.NodeID {
	id := models.NewNodeID()
	g.nodes[id] = data

	return id
}

// AddNodeWithID inserts (or overwrites) data at a caller-supplied id. Used
// when reconstructing a persisted graph.
func (g *WorkflowGraph) AddNodeWithID(id models.NodeID, data models.NodeData) {
	g.nodes[id] = data
}

// RemoveNode deletes the node and every edge touching it, returning the
// removed data, or nil and false when the id is absent.
func (g *WorkflowGraph) RemoveNode(id models.NodeID) (models.NodeData, bool) {
	data, ok := g.nodes[id]
	if !ok {
		return nil, false
	}

	delete(g.nodes, id)

	kept := g.edges[:0]

	for _, edge := range g.edges {
		if edge.From != id && edge.To != id {
			kept = append(kept, edge)
		}
	}

	g.edges = kept

	return data, true
}

// Node returns the data stored under id.
func (g *WorkflowGraph) Node(id models.NodeID) (models.NodeData, bool) {
	data, ok := g.nodes[id]

	return data, ok
}

// NodeCount returns the number of nodes.
func (g *WorkflowGraph) NodeCount() int {
	return len(g.nodes)
}

// Edges returns the edge list in insertion order. Callers must not mutate it.
func (g *WorkflowGraph) Edges() []models.Edge {
	return g.edges
}

// AddEdge appends an edge after checking that both endpoints exist. A failed
// call leaves the edge list untouched, so the graph never holds a dangling
// edge.
func (g *WorkflowGraph) AddEdge(edge models.Edge) error {
	if _, ok := g.nodes[edge.From]; !ok {
		return invalidDefinition("edge source node %s does not exist", edge.From)
	}

	if _, ok := g.nodes[edge.To]; !ok {
		return invalidDefinition("edge target node %s does not exist", edge.To)
	}

	g.edges = append(g.edges, edge)

	return nil
}

// Connect adds an unported edge from one node to another.
func (g *WorkflowGraph) Connect(from, to models.NodeID) error {
	return g.AddEdge(models.Edge{From: from, To: to})
}

// OutgoingEdges returns the edges leaving id, in insertion order.
func (g *WorkflowGraph) OutgoingEdges(id models.NodeID) []models.Edge {
	var out []models.Edge

	for _, edge := range g.edges {
		if edge.From == id {
			out = append(out, edge)
		}
	}

	return out
}

// SourceNodes returns every node that self-reports as a source or has no
// incoming edges. The OR is deliberate: an isolated node counts as both a
// source and a sink, so single-node graphs validate.
func (g *WorkflowGraph) SourceNodes() []models.NodeID {
	incoming := make(map[models.NodeID]int, len(g.nodes))
	for _, edge := range g.edges {
		incoming[edge.To]++
	}

	var sources []models.NodeID

	for id, data := range g.nodes {
		if data.IsSource() || incoming[id] == 0 {
			sources = append(sources, id)
		}
	}

	return sources
}

// SinkNodes returns every node that self-reports as a sink or has no outgoing
// edges. Symmetric with SourceNodes.
func (g *WorkflowGraph) SinkNodes() []models.NodeID {
	outgoing := make(map[models.NodeID]int, len(g.nodes))
	for _, edge := range g.edges {
		outgoing[edge.From]++
	}

	var sinks []models.NodeID

	for id, data := range g.nodes {
		if data.IsSink() || outgoing[id] == 0 {
			sinks = append(sinks, id)
		}
	}

	return sinks
}

// Validate checks, in order: the graph is non-empty, has at least one source,
// has at least one sink, and contains no cycle. The first failing check
// short-circuits with a distinct message.
func (g *WorkflowGraph) Validate() error {
	if len(g.nodes) == 0 {
		return invalidDefinition("graph must have at least one node")
	}

	if len(g.SourceNodes()) == 0 {
		return invalidDefinition("graph must have at least one source node")
	}

	if len(g.SinkNodes()) == 0 {
		return invalidDefinition("graph must have at least one sink node")
	}

	if cycleNode, found := g.findCycle(); found {
		return invalidDefinition("graph contains a cycle through node %s", cycleNode)
	}

	return nil
}

// SetMetadata attaches free-form metadata carried through serialization.
func (g *WorkflowGraph) SetMetadata(key string, value any) {
	if g.metadata == nil {
		g.metadata = make(map[string]any)
	}

	g.metadata[key] = value
}

// Metadata returns the graph's metadata map, which may be nil.
func (g *WorkflowGraph) Metadata() map[string]any {
	return g.metadata
}

type graphEnvelope struct {
	Nodes    map[models.NodeID]json.RawMessage `json:"nodes"`
	Edges    []models.Edge                     `json:"edges"`
	Metadata map[string]any                    `json:"metadata,omitempty"`
}

func (g *WorkflowGraph) MarshalJSON() ([]byte, error) {
	envelope := graphEnvelope{
		Nodes:    make(map[models.NodeID]json.RawMessage, len(g.nodes)),
		Edges:    g.edges,
		Metadata: g.metadata,
	}

	for id, data := range g.nodes {
		raw, err := models.MarshalNodeData(data)
		if err != nil {
			return nil, err
		}

		envelope.Nodes[id] = raw
	}

	if envelope.Edges == nil {
		envelope.Edges = []models.Edge{}
	}

	return json.Marshal(envelope)
}

func (g *WorkflowGraph) UnmarshalJSON(data []byte) error {
	var envelope graphEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	g.nodes = make(map[models.NodeID]models.NodeData, len(envelope.Nodes))
	g.edges = envelope.Edges
	g.metadata = envelope.Metadata

	for id, raw := range envelope.Nodes {
		nodeData, err := models.UnmarshalNodeData(raw)
		if err != nil {
			return err
		}

		g.nodes[id] = nodeData
	}

	return nil
}
