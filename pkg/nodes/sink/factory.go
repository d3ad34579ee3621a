// Package sink provides the sink node factory for registry integration.
package sink

import (
	"context"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/protocol"
)

// SinkNodeFactory creates sink node payloads.
type SinkNodeFactory struct{}

// Create builds a sink node.
func (f *SinkNodeFactory) Create(_ context.Context, config map[string]any) (models.NodeData, error) {
	name, _ := config["name"].(string)

	return models.SinkData{Name: name, Config: config}, nil
}

// ID returns the factory ID.
func (f *SinkNodeFactory) ID() string {
	return "sink"
}

// Name returns the factory name.
func (f *SinkNodeFactory) Name() string {
	return "Sink"
}

// Description returns the factory description.
func (f *SinkNodeFactory) Description() string {
	return "Hands finished items off to storage, a search index or a downstream system"
}

// Schema returns the JSON schema for sink node configuration.
func (f *SinkNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Display name of the sink",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "Destination the sink writes to",
				"examples":    []string{"s3://archive/processed", "qdrant://documents"},
			},
		},
		"required": []string{"destination"},
	}
}

// NewSinkNodeFactory creates a new factory instance.
func NewSinkNodeFactory() protocol.NodeFactory {
	return &SinkNodeFactory{}
}
