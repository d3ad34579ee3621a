package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID_Unique(t *testing.T) {
	seen := make(map[NodeID]struct{})

	for range 1000 {
		id := NewNodeID()

		_, dup := seen[id]
		require.False(t, dup, "generated a duplicate node id")
		seen[id] = struct{}{}
	}
}

func TestNodeID_TextRoundTrip(t *testing.T) {
	id := NewNodeID()

	text, err := id.MarshalText()
	require.NoError(t, err)

	var parsed NodeID

	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)
}

func TestNodeData_Classification(t *testing.T) {
	testCases := []struct {
		name     string
		data     NodeData
		isSource bool
		isSink   bool
	}{
		{"source", SourceData{Name: "intake"}, true, false},
		{"sink", SinkData{Name: "vector-store"}, false, true},
		{"transform", TransformData{Processor: ProcessorConfig{Chunking: SentenceChunking{MaxSentences: 3}}}, false, false},
		{"switch", SwitchData{Definition: SwitchDefinition{Branches: []SwitchBranch{{Condition: AlwaysCondition{}, Target: "out"}}}}, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.isSource, tc.data.IsSource())
			assert.Equal(t, tc.isSink, tc.data.IsSink())
		})
	}
}

func TestNodeData_EnvelopeRoundTrip(t *testing.T) {
	nodes := []NodeData{
		SourceData{Name: "drop-folder", Config: map[string]any{"path": "/var/intake"}},
		SinkData{Name: "search-index"},
		TransformData{
			Name: "chunk-and-embed",
			Processor: ProcessorConfig{
				Chunking:  RecursiveChunking{ChunkSize: 800, Overlap: 80},
				Embedding: OpenAIEmbedding{Model: "text-embedding-3-small"},
			},
		},
		SwitchData{
			Name: "by-type",
			Definition: SwitchDefinition{
				Branches: []SwitchBranch{
					{Condition: ContentTypeCondition{Category: CategoryImage}, Target: "vision"},
				},
				Default: "text",
			},
		},
	}

	for _, node := range nodes {
		t.Run(string(node.Kind()), func(t *testing.T) {
			data, err := MarshalNodeData(node)
			require.NoError(t, err)

			parsed, err := UnmarshalNodeData(data)
			require.NoError(t, err)

			assert.Equal(t, node, parsed)
		})
	}
}

func TestSwitchData_OutputPorts(t *testing.T) {
	data := SwitchData{
		Definition: SwitchDefinition{
			Branches: []SwitchBranch{
				{Condition: ContentTypeCondition{Category: CategoryAudio}, Target: "transcribe"},
				{Condition: ContentTypeCondition{Category: CategoryImage}, Target: "vision"},
			},
			Default: "text",
		},
	}

	assert.Equal(t, []string{"transcribe", "vision", "text"}, data.OutputPorts())
}

func TestPipeline_JSONRoundTrip(t *testing.T) {
	from := NewNodeID().String()
	to := NewNodeID().String()

	pipeline := Pipeline{
		ID:   "pl-1",
		Name: "invoice ingestion",
		Nodes: []PipelineNode{
			{ID: from, Data: SourceData{Name: "upload"}},
			{ID: to, Data: SinkData{Name: "store"}},
		},
		Edges:     []PipelineEdge{{From: from, To: to}},
		SlotFills: []SlotFill{{CacheSlot: CacheSlot{Slot: "parsed"}, From: from}},
		Metadata:  map[string]any{"team": "ingestion"},
	}

	data, err := json.Marshal(pipeline)
	require.NoError(t, err)

	var parsed Pipeline

	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, pipeline, parsed)
}

func TestPipeline_Validation(t *testing.T) {
	validate := validator.New()

	nodeID := NewNodeID().String()

	pipeline := &Pipeline{
		Name:  "ok pipeline",
		Nodes: []PipelineNode{{ID: nodeID, Data: SourceData{}}},
	}
	assert.NoError(t, validate.Struct(pipeline))

	pipeline.Name = "x"
	err := validate.Struct(pipeline)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors

	require.ErrorAs(t, err, &validationErrors)
	assert.Equal(t, "Name", validationErrors[0].Field())
}

func TestPipelineEdge_Validation_RejectsNonUUID(t *testing.T) {
	validate := validator.New()

	edge := &PipelineEdge{From: "not-a-uuid", To: NewNodeID().String()}
	assert.Error(t, validate.Struct(edge))
}
