// Package transform provides the transform node factory for registry
// integration.
package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/protocol"
)

// TransformNodeFactory creates transform node payloads.
type TransformNodeFactory struct{}

// Create builds a transform node. The chunking and embedding sections are
// decoded through their tagged envelopes, so an unknown strategy or provider
// fails here rather than at compile time.
func (f *TransformNodeFactory) Create(_ context.Context, config map[string]any) (models.NodeData, error) {
	name, _ := config["name"].(string)

	var processor models.ProcessorConfig

	if chunking, ok := config["chunking"]; ok {
		raw, err := json.Marshal(chunking)
		if err != nil {
			return nil, fmt.Errorf("invalid chunking configuration: %w", err)
		}

		strategy, err := models.UnmarshalChunkingStrategy(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid chunking configuration: %w", err)
		}

		processor.Chunking = strategy
	}

	if embedding, ok := config["embedding"]; ok {
		raw, err := json.Marshal(embedding)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding configuration: %w", err)
		}

		provider, err := models.UnmarshalEmbeddingProvider(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding configuration: %w", err)
		}

		processor.Embedding = provider
	}

	return models.TransformData{Name: name, Processor: processor}, nil
}

// ID returns the factory ID.
func (f *TransformNodeFactory) ID() string {
	return "transform"
}

// Name returns the factory name.
func (f *TransformNodeFactory) Name() string {
	return "Transform"
}

// Description returns the factory description.
func (f *TransformNodeFactory) Description() string {
	return "Runs an external processor over each item, configured with chunking and embedding settings"
}

// Schema returns the JSON schema for transform node configuration.
func (f *TransformNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Display name of the transform",
			},
			"chunking": map[string]any{
				"type":        "object",
				"description": "Chunking strategy, discriminated by the strategy field",
				"properties": map[string]any{
					"strategy": map[string]any{
						"type": "string",
						"enum": []string{"fixed_size", "sentence", "recursive", "markdown"},
					},
				},
				"required": []string{"strategy"},
			},
			"embedding": map[string]any{
				"type":        "object",
				"description": "Embedding provider, discriminated by the type field",
				"properties": map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": []string{"openai", "ollama", "huggingface"},
					},
				},
				"required": []string{"type"},
			},
		},
	}
}

// NewTransformNodeFactory creates a new factory instance.
func NewTransformNodeFactory() protocol.NodeFactory {
	return &TransformNodeFactory{}
}
