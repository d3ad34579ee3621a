package models

import (
	"encoding/json"
	"time"
)

// PipelineNode is one authored node of a pipeline definition: a stable id plus
// the tagged node payload.
type PipelineNode struct {
	ID   string `validate:"required,uuid"`
	Data NodeData
}

func (n PipelineNode) MarshalJSON() ([]byte, error) {
	payload, err := MarshalNodeData(n.Data)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	id, err := json.Marshal(n.ID)
	if err != nil {
		return nil, err
	}

	fields["id"] = id

	return json.Marshal(fields)
}

func (n *PipelineNode) UnmarshalJSON(data []byte) error {
	var envelope struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	nodeData, err := UnmarshalNodeData(data)
	if err != nil {
		return err
	}

	n.ID = envelope.ID
	n.Data = nodeData

	return nil
}

// PipelineEdge is an authored edge between two node ids of the same definition.
type PipelineEdge struct {
	From string `json:"from"           validate:"required,uuid"`
	To   string `json:"to"             validate:"required,uuid"`
	Port string `json:"port,omitempty"`
}

// SlotFill declares that a node's output feeds the named cache slot.
type SlotFill struct {
	CacheSlot

	From string `json:"from" validate:"required,uuid"`
}

// SlotDrain declares that a node's input is spliced from the named cache slot.
type SlotDrain struct {
	CacheSlot

	To string `json:"to" validate:"required,uuid"`
}

// Pipeline is the persisted, authorable definition of a document-processing
// pipeline: nodes, edges and cache-slot splices. It is the input to the
// compiler; the executable form is built from it, never mutated in place.
type Pipeline struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                  validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Nodes       []PipelineNode `json:"nodes"                 validate:"dive"`
	Edges       []PipelineEdge `json:"edges"                 validate:"dive"`
	SlotFills   []SlotFill     `json:"slot_fills,omitempty"  validate:"dive"`
	SlotDrains  []SlotDrain    `json:"slot_drains,omitempty" validate:"dive"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NodeByID returns the definition node with the given id, if present.
func (p *Pipeline) NodeByID(id string) (PipelineNode, bool) {
	for _, node := range p.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return PipelineNode{}, false
}
