// Package worker advances in-flight items through compiled pipelines. It
// consumes positioned items from the queue, asks the routing engine where
// each one goes next and publishes the outcome on the event bus.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/docpipe/docpipe/pkg/compiler"
	"github.com/docpipe/docpipe/pkg/eventbus"
	"github.com/docpipe/docpipe/pkg/events"
	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/otelhelper"
	"github.com/docpipe/docpipe/pkg/persistence"
	"github.com/docpipe/docpipe/pkg/queue"
)

type Worker struct {
	id          string
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	queue       queue.Queue
	tracer      trace.Tracer
	logger      *slog.Logger

	mu        sync.Mutex
	pipelines map[string]*compiler.Pipeline
	runs      map[string]*models.RunRecord
}

func NewWorker(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	itemQueue queue.Queue,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		id:          id,
		persistence: persistence,
		eventBus:    eventBus,
		queue:       itemQueue,
		tracer:      otel.Tracer("docpipe-worker"),
		logger:      logger.With("module", "worker", "worker_id", id),
		pipelines:   make(map[string]*compiler.Pipeline),
		runs:        make(map[string]*models.RunRecord),
	}
}

// Start runs the worker until SIGINT or SIGTERM.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Run(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return w.finishRuns(ctx)
}

// Run registers the queue consumer and returns. Callers that do not want
// signal handling, tests mostly, use this directly.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting item consumer")

	return w.queue.Consume(ctx, w.advance)
}

// Invalidate drops the cached compiled form of a pipeline so the next item
// picks up the stored definition again.
func (w *Worker) Invalidate(pipelineID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.pipelines, pipelineID)
}

func (w *Worker) advance(ctx context.Context, item *queue.Item) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "advance",
		attribute.String(otelhelper.PipelineIDKey, item.PipelineID),
		attribute.String(otelhelper.NodeIDKey, item.NodeID),
		attribute.String(otelhelper.ItemIDKey, item.ID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"pipeline_id", item.PipelineID,
		"node_id", item.NodeID,
		"item_id", item.ID,
	)

	pipeline, err := w.pipelineFor(ctx, item.PipelineID)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to load pipeline", "error", err)

		return err
	}

	nodeID, err := models.ParseNodeID(item.NodeID)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Item positioned at malformed node id", "error", err)

		return err
	}

	node, ok := pipeline.Graph.Node(nodeID)
	if !ok {
		err := fmt.Errorf("node %s not in pipeline %s", nodeID, item.PipelineID)
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Item positioned at unknown node")

		return err
	}

	if node.IsSink() {
		return w.deliver(ctx, logger, item)
	}

	var port string
	if compiled, isSwitch := pipeline.Switch(nodeID); isSwitch {
		if target, matched := compiled.Evaluate(item.Data); matched {
			port = target
		}
	}

	next, routed := pipeline.Route(nodeID, item.Data)
	if !routed {
		return w.unrouted(ctx, logger, item)
	}

	return w.routed(ctx, logger, item, next, port)
}

func (w *Worker) routed(ctx context.Context, logger *slog.Logger, item *queue.Item, next []models.NodeID, port string) error {
	nextIDs := make([]string, 0, len(next))
	for _, id := range next {
		nextIDs = append(nextIDs, id.String())
	}

	logger.InfoContext(ctx, "Item routed", "next_ids", nextIDs, "port", port)

	event := events.ItemRouted{
		BaseEvent: events.NewBaseEvent(events.ItemRoutedEvent, item.PipelineID),
		ItemID:    item.ID,
		FromID:    item.NodeID,
		NextIDs:   nextIDs,
		Port:      port,
	}
	event.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, item.PipelineID, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish item routed event", "error", err)

		return err
	}

	for _, id := range nextIDs {
		forwarded := &queue.Item{
			ID:         item.ID,
			PipelineID: item.PipelineID,
			NodeID:     id,
			Data:       item.Data,
		}

		if err := w.queue.Enqueue(ctx, forwarded); err != nil {
			logger.ErrorContext(ctx, "Failed to enqueue item at next node", "next_id", id, "error", err)

			return err
		}
	}

	return w.recordOutcome(ctx, item.PipelineID, true)
}

func (w *Worker) unrouted(ctx context.Context, logger *slog.Logger, item *queue.Item) error {
	logger.InfoContext(ctx, "Item unrouted, no branch matched and no default")

	event := events.ItemUnrouted{
		BaseEvent: events.NewBaseEvent(events.ItemUnroutedEvent, item.PipelineID),
		ItemID:    item.ID,
		NodeID:    item.NodeID,
	}
	event.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, item.PipelineID, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish item unrouted event", "error", err)

		return err
	}

	return w.recordOutcome(ctx, item.PipelineID, false)
}

func (w *Worker) deliver(ctx context.Context, logger *slog.Logger, item *queue.Item) error {
	logger.InfoContext(ctx, "Item delivered to sink")

	event := events.ItemDelivered{
		BaseEvent: events.NewBaseEvent(events.ItemDeliveredEvent, item.PipelineID),
		ItemID:    item.ID,
		NodeID:    item.NodeID,
	}
	event.WorkerID = w.id

	return w.eventBus.Publish(ctx, item.PipelineID, event)
}

func (w *Worker) pipelineFor(ctx context.Context, pipelineID string) (*compiler.Pipeline, error) {
	w.mu.Lock()
	cached, ok := w.pipelines[pipelineID]
	w.mu.Unlock()

	if ok {
		return cached, nil
	}

	definition, err := w.persistence.PipelineByID(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	compiled, err := compiler.Compile(definition)
	if err != nil {
		invalid := events.PipelineInvalid{
			BaseEvent: events.NewBaseEvent(events.PipelineInvalidEvent, pipelineID),
			Reason:    err.Error(),
		}
		invalid.WorkerID = w.id

		if publishErr := w.eventBus.Publish(ctx, pipelineID, invalid); publishErr != nil {
			w.logger.ErrorContext(ctx, "Failed to publish pipeline invalid event", "error", publishErr)
		}

		return nil, err
	}

	compiledEvent := events.PipelineCompiled{
		BaseEvent:   events.NewBaseEvent(events.PipelineCompiledEvent, pipelineID),
		NodeCount:   compiled.Graph.NodeCount(),
		EdgeCount:   len(compiled.Graph.Edges()),
		SwitchCount: compiled.SwitchCount(),
	}
	compiledEvent.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, pipelineID, compiledEvent); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish pipeline compiled event", "error", err)
	}

	w.mu.Lock()
	w.pipelines[pipelineID] = compiled
	w.mu.Unlock()

	return compiled, nil
}

func (w *Worker) recordOutcome(ctx context.Context, pipelineID string, routed bool) error {
	w.mu.Lock()

	run, ok := w.runs[pipelineID]
	if !ok {
		run = &models.RunRecord{
			ID:         uuid.New().String(),
			PipelineID: pipelineID,
			Status:     models.RunStatusRunning,
			StartedAt:  time.Now().UTC(),
		}
		w.runs[pipelineID] = run
	}

	if routed {
		run.ItemsRouted++
	} else {
		run.ItemsUnrouted++
	}

	snapshot := *run
	w.mu.Unlock()

	if err := w.persistence.SaveRun(ctx, &snapshot); err != nil {
		w.logger.ErrorContext(ctx, "Failed to persist run record", "run_id", snapshot.ID, "error", err)

		return err
	}

	return nil
}

func (w *Worker) finishRuns(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()

	for _, run := range w.runs {
		run.Status = models.RunStatusCompleted
		run.FinishedAt = &now

		if err := w.persistence.SaveRun(ctx, run); err != nil {
			w.logger.ErrorContext(ctx, "Failed to finalize run record", "run_id", run.ID, "error", err)

			return err
		}
	}

	return nil
}
