package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docpipe/docpipe/pkg/compiler"
	"github.com/docpipe/docpipe/pkg/models"
)

func loadDefinition(path string) (*models.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	var definition models.Pipeline
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}

	return &definition, nil
}

func runValidate(path string) error {
	definition, err := loadDefinition(path)
	if err != nil {
		return err
	}

	compiled, err := compiler.Compile(definition)
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid (%d nodes, %d edges, %d switches)\n",
		definition.Name,
		compiled.Graph.NodeCount(),
		len(compiled.Graph.Edges()),
		compiled.SwitchCount(),
	)

	return nil
}

func runOrder(path string) error {
	definition, err := loadDefinition(path)
	if err != nil {
		return err
	}

	compiled, err := compiler.Compile(definition)
	if err != nil {
		return err
	}

	for i, nodeID := range compiled.Order {
		label := nodeID.String()
		if data, ok := compiled.Graph.Node(nodeID); ok && data.Label() != "" {
			label = fmt.Sprintf("%s (%s)", data.Label(), nodeID)
		}

		fmt.Printf("%3d. %s\n", i+1, label)
	}

	return nil
}

func runRoute(path, node, itemPath, contentType string, size int64) error {
	definition, err := loadDefinition(path)
	if err != nil {
		return err
	}

	compiled, err := compiler.Compile(definition)
	if err != nil {
		return err
	}

	nodeID, err := models.ParseNodeID(node)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", node, err)
	}

	if _, ok := compiled.Graph.Node(nodeID); !ok {
		return fmt.Errorf("node %s not in pipeline", node)
	}

	blob := models.Blob{
		Path:        itemPath,
		ContentType: contentType,
		Size:        size,
	}

	next, routed := compiled.Route(nodeID, blob)
	if !routed {
		fmt.Println("unrouted: no branch matched and the switch has no default")

		return nil
	}

	if len(next) == 0 {
		fmt.Println("delivered: node has no outgoing edges")

		return nil
	}

	for _, id := range next {
		label := id.String()
		if data, ok := compiled.Graph.Node(id); ok && data.Label() != "" {
			label = fmt.Sprintf("%s (%s)", data.Label(), id)
		}

		fmt.Println("->", label)
	}

	return nil
}
