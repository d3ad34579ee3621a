package transform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/nodes/transform"
)

func TestTransformNodeFactory_Create(t *testing.T) {
	factory := transform.NewTransformNodeFactory()

	data, err := factory.Create(context.Background(), map[string]any{
		"name": "chunk-and-embed",
		"chunking": map[string]any{
			"strategy": "fixed_size",
			"size":     512,
			"overlap":  64,
		},
		"embedding": map[string]any{
			"type":  "ollama",
			"model": "nomic-embed-text",
		},
	})
	require.NoError(t, err)

	transformData, ok := data.(models.TransformData)
	require.True(t, ok)
	assert.Equal(t, "chunk-and-embed", transformData.Name)

	fixed, ok := transformData.Processor.Chunking.(models.FixedSizeChunking)
	require.True(t, ok)
	assert.Equal(t, 512, fixed.Size)

	ollama, ok := transformData.Processor.Embedding.(models.OllamaEmbedding)
	require.True(t, ok)
	assert.Equal(t, "nomic-embed-text", ollama.Model)
}

func TestTransformNodeFactory_Create_WithoutProcessor(t *testing.T) {
	factory := transform.NewTransformNodeFactory()

	data, err := factory.Create(context.Background(), map[string]any{"name": "passthrough"})
	require.NoError(t, err)

	transformData, ok := data.(models.TransformData)
	require.True(t, ok)
	assert.Nil(t, transformData.Processor.Chunking)
	assert.Nil(t, transformData.Processor.Embedding)
}

func TestTransformNodeFactory_Create_UnknownStrategy(t *testing.T) {
	factory := transform.NewTransformNodeFactory()

	_, err := factory.Create(context.Background(), map[string]any{
		"chunking": map[string]any{"strategy": "semantic"},
	})
	assert.Error(t, err)
}

func TestTransformNodeFactory_Create_UnknownEmbeddingProvider(t *testing.T) {
	factory := transform.NewTransformNodeFactory()

	_, err := factory.Create(context.Background(), map[string]any{
		"embedding": map[string]any{"type": "cohere"},
	})
	assert.Error(t, err)
}
