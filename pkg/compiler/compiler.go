// Package compiler turns authored pipeline definitions into executable,
// immutable pipelines: it resolves cache slots into direct edges, validates
// the resulting graph, fixes the topological order and compiles every switch.
package compiler

import (
	"sort"

	"github.com/docpipe/docpipe/pkg/graph"
	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/routing"
)

// Pipeline is the executable form of a definition. It is immutable after
// Compile returns; concurrent runs may share it read-only or hold independent
// copies. Compilation must happen-before any Route call.
type Pipeline struct {
	ID       string
	Name     string
	Graph    *graph.WorkflowGraph
	Order    []models.NodeID
	switches map[models.NodeID]*routing.CompiledSwitch
}

// Compile builds an executable pipeline from a definition. Every failure is an
// InvalidDefinitionError: unknown edge endpoints, unresolved or ambiguous
// cache slots, structural validation failures, or a switch whose targets have
// no matching ported edge. A failed compile leaves no partial state behind.
func Compile(definition *models.Pipeline) (*Pipeline, error) {
	g := graph.New()

	ids := make(map[string]models.NodeID, len(definition.Nodes))

	for _, node := range definition.Nodes {
		id, err := models.ParseNodeID(node.ID)
		if err != nil {
			return nil, graph.NewInvalidDefinition("node id %q is not a valid UUID", node.ID)
		}

		ids[node.ID] = id
		g.AddNodeWithID(id, node.Data)
	}

	for _, edge := range definition.Edges {
		from, ok := ids[edge.From]
		if !ok {
			return nil, graph.NewInvalidDefinition("edge references unknown node %q", edge.From)
		}

		to, ok := ids[edge.To]
		if !ok {
			return nil, graph.NewInvalidDefinition("edge references unknown node %q", edge.To)
		}

		if err := g.AddEdge(models.Edge{From: from, To: to, Port: edge.Port}); err != nil {
			return nil, err
		}
	}

	if err := resolveSlots(g, definition, ids); err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	switches, err := compileSwitches(g, definition, ids)
	if err != nil {
		return nil, err
	}

	for key, value := range definition.Metadata {
		g.SetMetadata(key, value)
	}

	return &Pipeline{
		ID:       definition.ID,
		Name:     definition.Name,
		Graph:    g,
		Order:    order,
		switches: switches,
	}, nil
}

// resolveSlots splices fragments: every drain of a slot gets a direct edge
// from every fill of the same slot, fills ordered by their declared priority.
// Slot names match by exact string equality. A slot with drains but no fills,
// fills but no drains, or an ambiguous priority ordering fails compilation.
func resolveSlots(g *graph.WorkflowGraph, definition *models.Pipeline, ids map[string]models.NodeID) error {
	fills := make(map[string][]models.SlotFill)
	for _, fill := range definition.SlotFills {
		fills[fill.Slot] = append(fills[fill.Slot], fill)
	}

	drains := make(map[string][]models.SlotDrain)
	for _, drain := range definition.SlotDrains {
		drains[drain.Slot] = append(drains[drain.Slot], drain)
	}

	for slot := range drains {
		if len(fills[slot]) == 0 {
			return graph.NewInvalidDefinition("cache slot %q is drained but never filled", slot)
		}
	}

	// Iterate fills in a stable order for deterministic error reporting.
	slotNames := make([]string, 0, len(fills))
	for slot := range fills {
		slotNames = append(slotNames, slot)
	}

	sort.Strings(slotNames)

	for _, slot := range slotNames {
		slotFills := fills[slot]

		if len(drains[slot]) == 0 {
			return graph.NewInvalidDefinition("cache slot %q is filled but never drained", slot)
		}

		if len(slotFills) > 1 {
			seen := make(map[uint32]struct{}, len(slotFills))

			for _, fill := range slotFills {
				if fill.Priority == nil {
					return graph.NewInvalidDefinition(
						"cache slot %q has %d fills; every fill needs a distinct priority", slot, len(slotFills))
				}

				if _, dup := seen[*fill.Priority]; dup {
					return graph.NewInvalidDefinition(
						"cache slot %q has more than one fill with priority %d", slot, *fill.Priority)
				}

				seen[*fill.Priority] = struct{}{}
			}

			sort.Slice(slotFills, func(i, j int) bool {
				return *slotFills[i].Priority < *slotFills[j].Priority
			})
		}

		for _, drain := range drains[slot] {
			to, ok := ids[drain.To]
			if !ok {
				return graph.NewInvalidDefinition("cache slot %q drains into unknown node %q", slot, drain.To)
			}

			for _, fill := range slotFills {
				from, ok := ids[fill.From]
				if !ok {
					return graph.NewInvalidDefinition("cache slot %q is filled by unknown node %q", slot, fill.From)
				}

				if err := g.AddEdge(models.Edge{From: from, To: to}); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// compileSwitches compiles every switch node's definition and checks that each
// routable target has exactly one outgoing edge on the matching port, so
// routing can never evaluate into a void at runtime.
func compileSwitches(g *graph.WorkflowGraph, definition *models.Pipeline, ids map[string]models.NodeID) (map[models.NodeID]*routing.CompiledSwitch, error) {
	switches := make(map[models.NodeID]*routing.CompiledSwitch)

	for _, node := range definition.Nodes {
		switchData, ok := node.Data.(models.SwitchData)
		if !ok {
			continue
		}

		id := ids[node.ID]

		compiled, err := routing.Compile(switchData.Definition)
		if err != nil {
			return nil, graph.NewInvalidDefinition("switch %q: %s", node.ID, err)
		}

		ports := make(map[string]int)
		for _, edge := range g.OutgoingEdges(id) {
			ports[edge.Port]++
		}

		for _, target := range switchData.Definition.Targets() {
			switch ports[target] {
			case 1:
			case 0:
				return nil, graph.NewInvalidDefinition(
					"switch %q routes to port %q but no edge leaves that port", node.ID, target)
			default:
				return nil, graph.NewInvalidDefinition(
					"switch %q has %d edges on port %q; routing would be ambiguous", node.ID, ports[target], target)
			}
		}

		switches[id] = compiled
	}

	return switches, nil
}

// SwitchCount returns the number of compiled switch nodes.
func (p *Pipeline) SwitchCount() int {
	return len(p.switches)
}

// Switch returns the compiled switch for a node, if the node is a switch.
func (p *Pipeline) Switch(id models.NodeID) (*routing.CompiledSwitch, bool) {
	compiled, ok := p.switches[id]

	return compiled, ok
}

// Route returns the nodes an item at the given node advances to. For a switch
// node the compiled condition tree picks a single ported edge; ok is false
// when no branch and no default matched, and the caller decides how to handle
// the unrouted item. For every other node kind all outgoing edges are taken.
func (p *Pipeline) Route(id models.NodeID, data models.DataValue) ([]models.NodeID, bool) {
	if compiled, isSwitch := p.switches[id]; isSwitch {
		target, ok := compiled.Evaluate(data)
		if !ok {
			return nil, false
		}

		for _, edge := range p.Graph.OutgoingEdges(id) {
			if edge.Port == target {
				return []models.NodeID{edge.To}, true
			}
		}

		// Unreachable for compiled pipelines; compile checks every target.
		return nil, false
	}

	edges := p.Graph.OutgoingEdges(id)
	next := make([]models.NodeID, 0, len(edges))

	for _, edge := range edges {
		next = append(next, edge.To)
	}

	return next, true
}
