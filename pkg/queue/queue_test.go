package queue_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/queue"
)

func TestItem_JSONRoundTrip(t *testing.T) {
	original := queue.Item{
		ID:         "item-1",
		PipelineID: "pl-1",
		NodeID:     "node-a",
		Data: models.Blob{
			Path:        "inbox/report.pdf",
			ContentType: "application/pdf",
			Size:        2048,
			Metadata:    map[string]string{"source": "email"},
		},
		EnqueuedAt: time.Now().UTC().Truncate(time.Second),
	}

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded queue.Item
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.PipelineID, decoded.PipelineID)
	assert.Equal(t, original.NodeID, decoded.NodeID)
	assert.Equal(t, original.EnqueuedAt, decoded.EnqueuedAt)

	blob, ok := decoded.Data.(models.Blob)
	require.True(t, ok)
	assert.Equal(t, "inbox/report.pdf", blob.Path)
	assert.Equal(t, int64(2048), blob.Size)
	assert.Equal(t, "email", blob.Metadata["source"])
}

func TestItem_RecordPayload(t *testing.T) {
	original := queue.Item{
		ID:         "item-2",
		PipelineID: "pl-1",
		NodeID:     "node-b",
		Data:       models.Record{Columns: map[string]any{"invoice": "INV-42"}},
	}

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded queue.Item
	require.NoError(t, json.Unmarshal(payload, &decoded))

	record, ok := decoded.Data.(models.Record)
	require.True(t, ok)
	assert.Equal(t, "INV-42", record.Columns["invoice"])
}

func TestMemoryQueue_EnqueueConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewMemoryQueue(8)
	defer q.Close(context.Background())

	var (
		mu       sync.Mutex
		received []string
	)

	done := make(chan struct{})

	err := q.Consume(ctx, func(ctx context.Context, item *queue.Item) error {
		mu.Lock()
		received = append(received, item.ID)
		count := len(received)
		mu.Unlock()

		if count == 3 {
			close(done)
		}

		return nil
	})
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, &queue.Item{
			ID:         id,
			PipelineID: "pl-1",
			NodeID:     "node-a",
			Data:       models.Blob{Path: id + ".pdf"},
		}))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for items")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, received)
}

func TestMemoryQueue_EnqueueAfterClose(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	require.NoError(t, q.Close(context.Background()))

	err := q.Enqueue(context.Background(), &queue.Item{
		ID:   "late",
		Data: models.Blob{Path: "late.pdf"},
	})
	assert.Error(t, err)
}

func TestMemoryQueue_SetsEnqueuedAt(t *testing.T) {
	ctx := context.Background()

	q := queue.NewMemoryQueue(1)
	defer q.Close(ctx)

	item := &queue.Item{ID: "x", Data: models.Record{Columns: map[string]any{}}}
	require.NoError(t, q.Enqueue(ctx, item))
	assert.False(t, item.EnqueuedAt.IsZero())
}
