// Package web provides HTTP request and response types for the pipeline API.
package web

import "github.com/docpipe/docpipe/pkg/models"

// CreatePipelineRequest represents the request body for creating a pipeline.
type CreatePipelineRequest struct {
	ID          string                `json:"id,omitempty"`
	Name        string                `json:"name"                  validate:"required,min=3"`
	Description string                `json:"description,omitempty"`
	Nodes       []models.PipelineNode `json:"nodes"`
	Edges       []models.PipelineEdge `json:"edges"`
	SlotFills   []models.SlotFill     `json:"slot_fills,omitempty"`
	SlotDrains  []models.SlotDrain    `json:"slot_drains,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	Owner       string                `json:"owner,omitempty"`
}

// ToPipeline converts the request into a definition model.
func (r CreatePipelineRequest) ToPipeline() *models.Pipeline {
	return &models.Pipeline{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
		SlotFills:   r.SlotFills,
		SlotDrains:  r.SlotDrains,
		Metadata:    r.Metadata,
		Owner:       r.Owner,
	}
}

// NodeTypeResponse describes a registered node type.
type NodeTypeResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}
