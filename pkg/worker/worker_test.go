package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/channels/gochannel"
	"github.com/docpipe/docpipe/pkg/eventbus"
	"github.com/docpipe/docpipe/pkg/events"
	"github.com/docpipe/docpipe/pkg/models"
	filepersistence "github.com/docpipe/docpipe/pkg/persistence/file"
	"github.com/docpipe/docpipe/pkg/queue"
	"github.com/docpipe/docpipe/pkg/worker"
)

type testHarness struct {
	persistence *filepersistence.Persistence
	bus         eventbus.EventBus
	queue       *queue.MemoryQueue
	worker      *worker.Worker

	delivered chan *events.ItemDelivered
	unrouted  chan *events.ItemUnrouted
	routed    chan *events.ItemRouted
}

func newTestHarness(t *testing.T, ctx context.Context) *testHarness {
	t.Helper()

	persistence, err := filepersistence.NewPersistence(t.TempDir())
	require.NoError(t, err)

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	itemQueue := queue.NewMemoryQueue(32)

	h := &testHarness{
		persistence: persistence,
		bus:         bus,
		queue:       itemQueue,
		worker:      worker.NewWorker("worker-test", persistence, bus, itemQueue, slog.New(slog.NewTextHandler(io.Discard, nil))),
		delivered:   make(chan *events.ItemDelivered, 8),
		unrouted:    make(chan *events.ItemUnrouted, 8),
		routed:      make(chan *events.ItemRouted, 8),
	}

	require.NoError(t, bus.Handle(events.ItemDeliveredEvent, func(ctx context.Context, event any) error {
		h.delivered <- event.(*events.ItemDelivered)

		return nil
	}))
	require.NoError(t, bus.Handle(events.ItemUnroutedEvent, func(ctx context.Context, event any) error {
		h.unrouted <- event.(*events.ItemUnrouted)

		return nil
	}))
	require.NoError(t, bus.Handle(events.ItemRoutedEvent, func(ctx context.Context, event any) error {
		h.routed <- event.(*events.ItemRouted)

		return nil
	}))

	require.NoError(t, bus.Subscribe(ctx))
	require.NoError(t, h.worker.Run(ctx))

	t.Cleanup(func() {
		_ = itemQueue.Close(context.Background())
		_ = persistence.Close(context.Background())
	})

	return h
}

// switchPipeline builds: source -> switch -[pdf]-> pdfSink, -[rest]-> restSink.
func switchPipeline(t *testing.T, withDefault bool) (*models.Pipeline, string, string, string) {
	t.Helper()

	sourceID := models.NewNodeID().String()
	switchID := models.NewNodeID().String()
	pdfSinkID := models.NewNodeID().String()
	restSinkID := models.NewNodeID().String()

	definition := models.SwitchDefinition{
		Branches: []models.SwitchBranch{
			{Condition: models.FileExtensionCondition{Extension: "pdf"}, Target: "pdf"},
		},
	}
	if withDefault {
		definition.Default = "rest"
	}

	pipeline := &models.Pipeline{
		ID:   "pl-switch",
		Name: "switch routing",
		Nodes: []models.PipelineNode{
			{ID: sourceID, Data: models.SourceData{Name: "inbox"}},
			{ID: switchID, Data: models.SwitchData{Name: "by-type", Definition: definition}},
			{ID: pdfSinkID, Data: models.SinkData{Name: "pdf-store"}},
			{ID: restSinkID, Data: models.SinkData{Name: "rest-store"}},
		},
		Edges: []models.PipelineEdge{
			{From: sourceID, To: switchID},
			{From: switchID, To: pdfSinkID, Port: "pdf"},
			{From: switchID, To: restSinkID, Port: "rest"},
		},
	}

	return pipeline, sourceID, pdfSinkID, restSinkID
}

func waitFor[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)

		panic("unreachable")
	}
}

func TestWorker_RoutesItemToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, ctx)

	pipeline, sourceID, pdfSinkID, _ := switchPipeline(t, true)
	require.NoError(t, h.persistence.SavePipeline(ctx, pipeline))

	require.NoError(t, h.queue.Enqueue(ctx, &queue.Item{
		ID:         "item-1",
		PipelineID: pipeline.ID,
		NodeID:     sourceID,
		Data:       models.Blob{Path: "inbox/report.pdf", ContentType: "application/pdf"},
	}))

	first := waitFor(t, h.routed, "source hop")
	assert.Equal(t, sourceID, first.FromID)
	assert.Empty(t, first.Port)

	second := waitFor(t, h.routed, "switch hop")
	assert.Equal(t, "pdf", second.Port)
	assert.Equal(t, []string{pdfSinkID}, second.NextIDs)

	delivered := waitFor(t, h.delivered, "delivery")
	assert.Equal(t, "item-1", delivered.ItemID)
	assert.Equal(t, pdfSinkID, delivered.NodeID)
	assert.Equal(t, "worker-test", delivered.WorkerID)
}

func TestWorker_DefaultBranch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, ctx)

	pipeline, sourceID, _, restSinkID := switchPipeline(t, true)
	require.NoError(t, h.persistence.SavePipeline(ctx, pipeline))

	require.NoError(t, h.queue.Enqueue(ctx, &queue.Item{
		ID:         "item-2",
		PipelineID: pipeline.ID,
		NodeID:     sourceID,
		Data:       models.Blob{Path: "inbox/notes.txt", ContentType: "text/plain"},
	}))

	waitFor(t, h.routed, "source hop")

	second := waitFor(t, h.routed, "switch hop")
	assert.Equal(t, "rest", second.Port)
	assert.Equal(t, []string{restSinkID}, second.NextIDs)

	waitFor(t, h.delivered, "delivery")
}

func TestWorker_UnroutedWithoutDefault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, ctx)

	pipeline, sourceID, _, _ := switchPipeline(t, false)
	require.NoError(t, h.persistence.SavePipeline(ctx, pipeline))

	require.NoError(t, h.queue.Enqueue(ctx, &queue.Item{
		ID:         "item-3",
		PipelineID: pipeline.ID,
		NodeID:     sourceID,
		Data:       models.Blob{Path: "inbox/notes.txt", ContentType: "text/plain"},
	}))

	waitFor(t, h.routed, "source hop")

	unrouted := waitFor(t, h.unrouted, "unrouted item")
	assert.Equal(t, "item-3", unrouted.ItemID)

	runs := waitForRuns(t, h.persistence, pipeline.ID)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].ItemsUnrouted)
}

func TestWorker_RecordsRunCounters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, ctx)

	pipeline, sourceID, _, _ := switchPipeline(t, true)
	require.NoError(t, h.persistence.SavePipeline(ctx, pipeline))

	require.NoError(t, h.queue.Enqueue(ctx, &queue.Item{
		ID:         "item-4",
		PipelineID: pipeline.ID,
		NodeID:     sourceID,
		Data:       models.Blob{Path: "inbox/scan.pdf", ContentType: "application/pdf"},
	}))

	waitFor(t, h.delivered, "delivery")

	runs := waitForRuns(t, h.persistence, pipeline.ID)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusRunning, runs[0].Status)
	assert.Equal(t, 2, runs[0].ItemsRouted)
}

func TestWorker_UnknownPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, ctx)

	require.NoError(t, h.queue.Enqueue(ctx, &queue.Item{
		ID:         "item-5",
		PipelineID: "missing",
		NodeID:     models.NewNodeID().String(),
		Data:       models.Blob{Path: "x.pdf"},
	}))

	select {
	case <-h.routed:
		t.Fatal("item for unknown pipeline must not be routed")
	case <-time.After(500 * time.Millisecond):
	}
}

func waitForRuns(t *testing.T, p *filepersistence.Persistence, pipelineID string) []*models.RunRecord {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		runs, err := p.RunsByPipeline(context.Background(), pipelineID)
		require.NoError(t, err)

		if len(runs) > 0 {
			return runs
		}

		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("timed out waiting for run records")

	return nil
}
