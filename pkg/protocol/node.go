// Package protocol defines the contracts for pluggable node types.
package protocol

import (
	"context"

	"github.com/docpipe/docpipe/pkg/models"
)

// NodeFactory builds node payloads from raw configuration and provides
// metadata about the node type.
type NodeFactory interface {
	// Create builds the node payload from an already schema-validated
	// configuration.
	Create(ctx context.Context, config map[string]any) (models.NodeData, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
