package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/docpipe/docpipe/pkg/compiler"
	"github.com/docpipe/docpipe/pkg/eventbus"
	"github.com/docpipe/docpipe/pkg/events"
	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/persistence"
)

// ErrPipelineNotFound is returned when a pipeline is not found.
var ErrPipelineNotFound = persistence.ErrPipelineNotFound

type PipelineService struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	validator   *validator.Validate
}

// NewPipelineService creates a new pipeline service. The event publisher may
// be nil; compilation outcomes are then not announced.
func NewPipelineService(p persistence.Persistence, bus eventbus.EventPublisher) *PipelineService {
	return &PipelineService{
		persistence: p,
		eventBus:    bus,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *PipelineService) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all stored pipeline definitions.
func (s *PipelineService) List(ctx context.Context) ([]*models.Pipeline, error) {
	pipelines, err := s.persistence.Pipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	return pipelines, nil
}

// FetchByID returns the pipeline with the given ID.
func (s *PipelineService) FetchByID(ctx context.Context, id string) (*models.Pipeline, error) {
	return s.persistence.PipelineByID(ctx, id)
}

// Create validates and stores a new pipeline definition.
func (s *PipelineService) Create(ctx context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	if pipeline == nil {
		return nil, ErrPipelineNil
	}

	if pipeline.Name == "" {
		return nil, ErrPipelineNameRequired
	}

	if err := s.validator.Struct(pipeline); err != nil {
		return nil, NewValidationError("create_pipeline", "invalid_definition", err.Error(), ErrInvalidRequest)
	}

	if pipeline.ID == "" {
		pipeline.ID = uuid.New().String()
	} else if _, err := s.persistence.PipelineByID(ctx, pipeline.ID); err == nil {
		return nil, ErrPipelineExists
	}

	now := time.Now().UTC()
	pipeline.CreatedAt = now
	pipeline.UpdatedAt = now

	if err := s.persistence.SavePipeline(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to save pipeline: %w", err)
	}

	return pipeline, nil
}

// Update validates and replaces an existing pipeline definition.
func (s *PipelineService) Update(ctx context.Context, id string, pipeline *models.Pipeline) (*models.Pipeline, error) {
	if pipeline == nil {
		return nil, ErrPipelineNil
	}

	existing, err := s.persistence.PipelineByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pipeline.ID = id
	pipeline.CreatedAt = existing.CreatedAt
	pipeline.UpdatedAt = time.Now().UTC()

	if err := s.validator.Struct(pipeline); err != nil {
		return nil, NewValidationError("update_pipeline", "invalid_definition", err.Error(), ErrInvalidRequest)
	}

	if err := s.persistence.SavePipeline(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to save pipeline: %w", err)
	}

	return pipeline, nil
}

// Delete removes a pipeline definition.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	return s.persistence.DeletePipeline(ctx, id)
}

// Runs returns the run records of a pipeline, newest first.
func (s *PipelineService) Runs(ctx context.Context, pipelineID string) ([]*models.RunRecord, error) {
	if _, err := s.persistence.PipelineByID(ctx, pipelineID); err != nil {
		return nil, err
	}

	return s.persistence.RunsByPipeline(ctx, pipelineID)
}

// CompileSummary describes the executable form of a definition.
type CompileSummary struct {
	PipelineID  string   `json:"pipeline_id"`
	NodeCount   int      `json:"node_count"`
	EdgeCount   int      `json:"edge_count"`
	SwitchCount int      `json:"switch_count"`
	Order       []string `json:"order"`
}

// Compile compiles a stored definition and announces the outcome on the event
// bus. The compiled pipeline itself stays worker-side; the summary is what
// the API exposes.
func (s *PipelineService) Compile(ctx context.Context, id string) (*CompileSummary, error) {
	definition, err := s.persistence.PipelineByID(ctx, id)
	if err != nil {
		return nil, err
	}

	compiled, err := compiler.Compile(definition)
	if err != nil {
		s.publish(ctx, id, events.PipelineInvalid{
			BaseEvent: events.NewBaseEvent(events.PipelineInvalidEvent, id),
			Reason:    err.Error(),
		})

		return nil, err
	}

	order := make([]string, 0, len(compiled.Order))
	for _, nodeID := range compiled.Order {
		order = append(order, nodeID.String())
	}

	summary := &CompileSummary{
		PipelineID:  id,
		NodeCount:   compiled.Graph.NodeCount(),
		EdgeCount:   len(compiled.Graph.Edges()),
		SwitchCount: compiled.SwitchCount(),
		Order:       order,
	}

	s.publish(ctx, id, events.PipelineCompiled{
		BaseEvent:   events.NewBaseEvent(events.PipelineCompiledEvent, id),
		NodeCount:   summary.NodeCount,
		EdgeCount:   summary.EdgeCount,
		SwitchCount: summary.SwitchCount,
	})

	return summary, nil
}

func (s *PipelineService) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.eventBus == nil {
		return
	}

	_ = s.eventBus.Publish(ctx, key, event)
}
