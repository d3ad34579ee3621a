package models

import (
	"encoding/json"
	"fmt"
)

// NodeKind is the JSON discriminator for node data.
type NodeKind string

const (
	KindSource    NodeKind = "source"
	KindSink      NodeKind = "sink"
	KindTransform NodeKind = "transform"
	KindSwitch    NodeKind = "switch"
)

// NodeData classifies a graph vertex. The union is closed: source, sink,
// transform and switch. IsSource and IsSink are pure functions of the variant
// and are what graph validation consults; they never change over a node's
// lifetime.
type NodeData interface {
	Kind() NodeKind
	IsSource() bool
	IsSink() bool
	Label() string
}

// SourceData marks a node that introduces data into the pipeline (ingestion).
type SourceData struct {
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

func (SourceData) Kind() NodeKind  { return KindSource }
func (SourceData) IsSource() bool  { return true }
func (SourceData) IsSink() bool    { return false }
func (d SourceData) Label() string { return d.Name }

// SinkData marks a terminal node that hands data off to storage or an index.
type SinkData struct {
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

func (SinkData) Kind() NodeKind  { return KindSink }
func (SinkData) IsSource() bool  { return false }
func (SinkData) IsSink() bool    { return true }
func (d SinkData) Label() string { return d.Name }

// TransformData wraps the configuration of an external processor (chunking,
// embedding). The core carries the configuration without interpreting it.
type TransformData struct {
	Name      string          `json:"name,omitempty"`
	Processor ProcessorConfig `json:"processor"`
}

func (TransformData) Kind() NodeKind  { return KindTransform }
func (TransformData) IsSource() bool  { return false }
func (TransformData) IsSink() bool    { return false }
func (d TransformData) Label() string { return d.Name }

// SwitchData wraps a declarative routing rule and exposes one named output
// port per branch target.
type SwitchData struct {
	Name       string           `json:"name,omitempty"`
	Definition SwitchDefinition `json:"definition"`
}

func (SwitchData) Kind() NodeKind  { return KindSwitch }
func (SwitchData) IsSource() bool  { return false }
func (SwitchData) IsSink() bool    { return false }
func (d SwitchData) Label() string { return d.Name }

// OutputPorts returns the named output ports of the switch, one per distinct
// branch target.
func (d SwitchData) OutputPorts() []string {
	return d.Definition.Targets()
}

// ProcessorConfig is the opaque processor payload attached to a transform
// node: a chunking strategy, an embedding provider, or both (chunk then embed).
type ProcessorConfig struct {
	Chunking  ChunkingStrategy
	Embedding EmbeddingProvider
}

type processorEnvelope struct {
	Chunking  json.RawMessage `json:"chunking,omitempty"`
	Embedding json.RawMessage `json:"embedding,omitempty"`
}

func (p ProcessorConfig) MarshalJSON() ([]byte, error) {
	var envelope processorEnvelope

	if p.Chunking != nil {
		raw, err := MarshalChunkingStrategy(p.Chunking)
		if err != nil {
			return nil, err
		}

		envelope.Chunking = raw
	}

	if p.Embedding != nil {
		raw, err := MarshalEmbeddingProvider(p.Embedding)
		if err != nil {
			return nil, err
		}

		envelope.Embedding = raw
	}

	return json.Marshal(envelope)
}

func (p *ProcessorConfig) UnmarshalJSON(data []byte) error {
	var envelope processorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	if envelope.Chunking != nil {
		chunking, err := UnmarshalChunkingStrategy(envelope.Chunking)
		if err != nil {
			return err
		}

		p.Chunking = chunking
	}

	if envelope.Embedding != nil {
		embedding, err := UnmarshalEmbeddingProvider(envelope.Embedding)
		if err != nil {
			return err
		}

		p.Embedding = embedding
	}

	return nil
}

// MarshalNodeData serializes node data to its tagged JSON envelope with the
// "kind" discriminator.
func MarshalNodeData(d NodeData) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot marshal nil node data")
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	kind, err := json.Marshal(d.Kind())
	if err != nil {
		return nil, err
	}

	fields["kind"] = kind

	return json.Marshal(fields)
}

// UnmarshalNodeData parses a tagged JSON envelope back into the matching node
// variant.
func UnmarshalNodeData(data []byte) (NodeData, error) {
	var envelope struct {
		Kind NodeKind `json:"kind"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Kind {
	case KindSource:
		var d SourceData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}

		return d, nil
	case KindSink:
		var d SinkData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}

		return d, nil
	case KindTransform:
		var d TransformData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}

		return d, nil
	case KindSwitch:
		var d SwitchData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}

		return d, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", envelope.Kind)
	}
}
