// Package queue moves in-flight items between ingestion and the routing
// workers.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/docpipe/docpipe/pkg/models"
)

// Item is a unit of work: a payload positioned at a node of a pipeline,
// waiting for a worker to advance it.
type Item struct {
	ID         string
	PipelineID string
	NodeID     string
	Data       models.DataValue
	EnqueuedAt time.Time
}

type itemEnvelope struct {
	ID         string          `json:"id"`
	PipelineID string          `json:"pipeline_id"`
	NodeID     string          `json:"node_id"`
	Data       json.RawMessage `json:"data"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	data, err := models.MarshalDataValue(i.Data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(itemEnvelope{
		ID:         i.ID,
		PipelineID: i.PipelineID,
		NodeID:     i.NodeID,
		Data:       data,
		EnqueuedAt: i.EnqueuedAt,
	})
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var envelope itemEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	value, err := models.UnmarshalDataValue(envelope.Data)
	if err != nil {
		return err
	}

	i.ID = envelope.ID
	i.PipelineID = envelope.PipelineID
	i.NodeID = envelope.NodeID
	i.Data = value
	i.EnqueuedAt = envelope.EnqueuedAt

	return nil
}

// Handler processes a dequeued item. A non-nil error leaves the item
// unacknowledged so another consumer can retry it.
type Handler func(ctx context.Context, item *Item) error

// Queue is the transport between ingestion and routing workers.
type Queue interface {
	Enqueue(ctx context.Context, item *Item) error
	Consume(ctx context.Context, handler Handler) error
	Close(ctx context.Context) error
}
