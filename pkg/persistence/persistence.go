// Package persistence provides the storage abstraction for pipeline
// definitions and run records.
package persistence

import (
	"context"

	"github.com/docpipe/docpipe/pkg/models"
)

type Persistence interface {
	Pipelines(ctx context.Context) ([]*models.Pipeline, error)
	SavePipeline(ctx context.Context, pipeline *models.Pipeline) error
	PipelineByID(ctx context.Context, id string) (*models.Pipeline, error)
	DeletePipeline(ctx context.Context, id string) error

	SaveRun(ctx context.Context, run *models.RunRecord) error
	RunByID(ctx context.Context, id string) (*models.RunRecord, error)
	RunsByPipeline(ctx context.Context, pipelineID string) ([]*models.RunRecord, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
