// Package models defines the core domain models for document-processing pipeline graphs.
package models

import (
	"github.com/google/uuid"
)

// NodeID identifies a node within a pipeline graph. IDs are UUIDv7 so they sort
// by creation time, but only uniqueness is relied upon.
type NodeID uuid.UUID

// NewNodeID generates a fresh node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()))
}

// ParseNodeID parses the canonical UUID string form of a node identifier.
func ParseNodeID(s string) (NodeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NodeID{}, err
	}

	return NodeID(id), nil
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the identifier is the zero value.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// MarshalText serializes the identifier as its canonical UUID string. Text
// marshalling (rather than JSON) keeps NodeID usable as a JSON object key.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *NodeID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}

	*id = NodeID(parsed)

	return nil
}
