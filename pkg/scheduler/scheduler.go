// Package scheduler runs cron-driven ingestion for pipeline source nodes.
// Each source node carrying a schedule gets a cron job that scans its
// configured location and enqueues newly found files as items.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/docpipe/docpipe/pkg/eventbus"
	"github.com/docpipe/docpipe/pkg/events"
	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/persistence"
	"github.com/docpipe/docpipe/pkg/queue"
)

// scheduledSource is one source node with a cron schedule, resolved from a
// stored pipeline definition.
type scheduledSource struct {
	pipelineID string
	nodeID     string
	schedule   string
	location   string
}

// IngestScheduler watches scheduled source nodes and feeds the item queue.
type IngestScheduler struct {
	persistence persistence.Persistence
	queue       queue.Queue
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger

	cron    *cron.Cron
	sources []scheduledSource

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewIngestScheduler(
	persistence persistence.Persistence,
	itemQueue queue.Queue,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
) *IngestScheduler {
	return &IngestScheduler{
		persistence: persistence,
		queue:       itemQueue,
		eventBus:    eventBus,
		logger:      logger.With("module", "ingest_scheduler"),
		seen:        make(map[string]time.Time),
	}
}

// Start loads pipelines, registers a cron job per scheduled source node and
// starts the scheduler. It returns an error when any schedule is invalid.
func (s *IngestScheduler) Start(ctx context.Context) error {
	sources, err := s.collectSources(ctx)
	if err != nil {
		return err
	}

	s.sources = sources
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	for _, source := range sources {
		src := source
		_, err := s.cron.AddFunc(src.schedule, func() {
			if err := s.scan(ctx, src); err != nil {
				s.logger.Error("Scheduled scan failed",
					"pipeline_id", src.pipelineID, "node_id", src.nodeID, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for node %s: %w", src.schedule, src.nodeID, err)
		}

		s.logger.Info("Registered scheduled source",
			"pipeline_id", src.pipelineID, "node_id", src.nodeID, "schedule", src.schedule)
	}

	s.cron.Start()
	s.logger.Info("Ingest scheduler started", "sources_count", len(sources))

	return nil
}

// Stop halts the cron scheduler. Running scans finish before Stop returns.
func (s *IngestScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("Ingest scheduler stopped")
	}
}

// ScanAll runs one scan of every scheduled source immediately, outside the
// cron cadence.
func (s *IngestScheduler) ScanAll(ctx context.Context) error {
	sources := s.sources
	if sources == nil {
		collected, err := s.collectSources(ctx)
		if err != nil {
			return err
		}

		sources = collected
	}

	for _, src := range sources {
		if err := s.scan(ctx, src); err != nil {
			return err
		}
	}

	return nil
}

func (s *IngestScheduler) collectSources(ctx context.Context) ([]scheduledSource, error) {
	pipelines, err := s.persistence.Pipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipelines: %w", err)
	}

	var sources []scheduledSource

	for _, pipeline := range pipelines {
		for _, node := range pipeline.Nodes {
			source, ok := node.Data.(models.SourceData)
			if !ok {
				continue
			}

			schedule, ok := source.Config["schedule"].(string)
			if !ok || schedule == "" {
				continue
			}

			if _, err := cron.ParseStandard(schedule); err != nil {
				return nil, fmt.Errorf("invalid schedule %q for node %s: %w", schedule, node.ID, err)
			}

			location, ok := source.Config["location"].(string)
			if !ok || location == "" {
				return nil, fmt.Errorf("scheduled source %s has no location", node.ID)
			}

			sources = append(sources, scheduledSource{
				pipelineID: pipeline.ID,
				nodeID:     node.ID,
				schedule:   schedule,
				location:   location,
			})
		}
	}

	return sources, nil
}

// scan reads the source location and enqueues every file not seen before, or
// seen with an older modification time.
func (s *IngestScheduler) scan(ctx context.Context, src scheduledSource) error {
	dir := strings.TrimPrefix(src.location, "file://")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !s.markSeen(path, info.ModTime()) {
			continue
		}

		if err := s.enqueue(ctx, src, path, info.Size()); err != nil {
			return err
		}
	}

	return nil
}

// markSeen records the file's modification time. It reports false when the
// file was already ingested at this or a newer mtime.
func (s *IngestScheduler) markSeen(path string, modTime time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.seen[path]; ok && !modTime.After(previous) {
		return false
	}

	s.seen[path] = modTime

	return true
}

func (s *IngestScheduler) enqueue(ctx context.Context, src scheduledSource, path string, size int64) error {
	item := &queue.Item{
		ID:         uuid.New().String(),
		PipelineID: src.pipelineID,
		NodeID:     src.nodeID,
		Data: models.Blob{
			Path:        path,
			ContentType: contentTypeFor(path),
			Size:        size,
		},
	}

	if err := s.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", path, err)
	}

	event := events.ItemIngested{
		BaseEvent: events.NewBaseEvent(events.ItemIngestedEvent, src.pipelineID),
		ItemID:    item.ID,
		NodeID:    src.nodeID,
	}

	if err := s.eventBus.Publish(ctx, src.pipelineID, event); err != nil {
		s.logger.Warn("Failed to publish ingestion event",
			"item_id", item.ID, "error", err)
	}

	s.logger.Info("Ingested item",
		"item_id", item.ID, "pipeline_id", src.pipelineID, "path", path)

	return nil
}

func contentTypeFor(path string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}
