// Package testutil provides test data builders for pipeline definitions.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/pkg/models"
)

// CreateTestPipeline builds a minimal valid pipeline definition with default
// values that can be overridden. Without overrides it is a single source node
// feeding a single sink node.
func CreateTestPipeline(overrides ...func(*models.Pipeline)) *models.Pipeline {
	sourceID := uuid.New().String()
	sinkID := uuid.New().String()

	pipeline := &models.Pipeline{
		ID:   uuid.New().String(),
		Name: "Test Pipeline",
		Nodes: []models.PipelineNode{
			{ID: sourceID, Data: models.SourceData{Name: "intake"}},
			{ID: sinkID, Data: models.SinkData{Name: "archive"}},
		},
		Edges: []models.PipelineEdge{
			{From: sourceID, To: sinkID},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(pipeline)
	}

	return pipeline
}

// WithName sets the pipeline name.
func WithName(name string) func(*models.Pipeline) {
	return func(p *models.Pipeline) {
		p.Name = name
	}
}

// WithScheduledSource replaces the first source node's config with a cron
// schedule and an ingestion location.
func WithScheduledSource(schedule, location string) func(*models.Pipeline) {
	return func(p *models.Pipeline) {
		for i, node := range p.Nodes {
			source, ok := node.Data.(models.SourceData)
			if !ok {
				continue
			}

			source.Config = map[string]any{
				"schedule": schedule,
				"location": location,
			}
			p.Nodes[i].Data = source

			return
		}
	}
}

// CreateTestNode builds a pipeline node with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.PipelineNode)) *models.PipelineNode {
	node := &models.PipelineNode{
		ID:   uuid.New().String(),
		Data: models.TransformData{Name: "normalize"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithNodeData sets the node's payload.
func WithNodeData(data models.NodeData) func(*models.PipelineNode) {
	return func(n *models.PipelineNode) {
		n.Data = data
	}
}
