// Package events defines event types for pipeline compilation and routing
// lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the event stream all docpipe lifecycle events are published to.
const Topic = "docpipe.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Definition lifecycle events.
	PipelineCompiledEvent EventType = "pipeline.compiled"
	PipelineInvalidEvent  EventType = "pipeline.invalid"

	// Routing lifecycle events, emitted per in-flight item.
	ItemIngestedEvent  EventType = "item.ingested"
	ItemRoutedEvent    EventType = "item.routed"
	ItemUnroutedEvent  EventType = "item.unrouted"
	ItemDeliveredEvent EventType = "item.delivered"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	PipelineID string         `json:"pipeline_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, pipelineID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		PipelineID: pipelineID,
		Metadata:   make(map[string]any),
	}
}

// PipelineCompiled is emitted after a definition validates and compiles.
type PipelineCompiled struct {
	BaseEvent

	NodeCount   int `json:"node_count"`
	EdgeCount   int `json:"edge_count"`
	SwitchCount int `json:"switch_count"`
}

func (e PipelineCompiled) GetType() EventType { return PipelineCompiledEvent }

// PipelineInvalid is emitted when a definition fails validation or compilation.
type PipelineInvalid struct {
	BaseEvent

	Reason string `json:"reason"`
}

func (e PipelineInvalid) GetType() EventType { return PipelineInvalidEvent }

// ItemIngested is emitted when a source node introduces a new item.
type ItemIngested struct {
	BaseEvent

	ItemID string `json:"item_id"`
	NodeID string `json:"node_id"`
}

func (e ItemIngested) GetType() EventType { return ItemIngestedEvent }

// ItemRouted is emitted after an item advances from one node to the next.
type ItemRouted struct {
	BaseEvent

	ItemID  string   `json:"item_id"`
	FromID  string   `json:"from_id"`
	NextIDs []string `json:"next_ids"`
	Port    string   `json:"port,omitempty"`
}

func (e ItemRouted) GetType() EventType { return ItemRoutedEvent }

// ItemUnrouted is emitted when a switch matches no branch and has no default.
// This is a normal outcome; the handler decides whether it is a warning or an
// error for the pipeline at hand.
type ItemUnrouted struct {
	BaseEvent

	ItemID string `json:"item_id"`
	NodeID string `json:"node_id"`
}

func (e ItemUnrouted) GetType() EventType { return ItemUnroutedEvent }

// ItemDelivered is emitted when an item reaches a sink node.
type ItemDelivered struct {
	BaseEvent

	ItemID string `json:"item_id"`
	NodeID string `json:"node_id"`
}

func (e ItemDelivered) GetType() EventType { return ItemDeliveredEvent }
