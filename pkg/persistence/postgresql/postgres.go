// Package postgresql provides PostgreSQL persistence for pipelines and runs.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/persistence"
)

// Persistence implements the persistence layer on PostgreSQL. Pipeline
// definitions are stored as JSONB documents; the tagged envelopes make the
// documents self-describing, so no per-node tables are needed.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects, pings and migrates the database.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{db: database, logger: logger}

	if err := p.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Pipelines(ctx context.Context) ([]*models.Pipeline, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT document
		FROM pipelines
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipelines: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	pipelines := make([]*models.Pipeline, 0)

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}

		var pipeline models.Pipeline
		if err := json.Unmarshal(document, &pipeline); err != nil {
			return nil, fmt.Errorf("failed to parse pipeline document: %w", err)
		}

		pipelines = append(pipelines, &pipeline)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipelines: %w", err)
	}

	return pipelines, nil
}

func (p *Persistence) SavePipeline(ctx context.Context, pipeline *models.Pipeline) error {
	document, err := json.Marshal(pipeline)
	if err != nil {
		return persistence.NewPipelineError("Save", pipeline.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name
		  , document = EXCLUDED.document
		  , updated_at = EXCLUDED.updated_at
	`, pipeline.ID, pipeline.Name, document, pipeline.CreatedAt, pipeline.UpdatedAt)
	if err != nil {
		return persistence.NewPipelineError("Save", pipeline.ID, err)
	}

	return nil
}

func (p *Persistence) PipelineByID(ctx context.Context, id string) (*models.Pipeline, error) {
	var document []byte

	err := p.db.QueryRowContext(ctx, `
		SELECT document FROM pipelines WHERE id = $1
	`, id).Scan(&document)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrPipelineNotFound
	}

	if err != nil {
		return nil, persistence.NewPipelineError("PipelineByID", id, err)
	}

	var pipeline models.Pipeline
	if err := json.Unmarshal(document, &pipeline); err != nil {
		return nil, persistence.NewPipelineError("PipelineByID", id, err)
	}

	return &pipeline, nil
}

func (p *Persistence) DeletePipeline(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = $1`, id)
	if err != nil {
		return persistence.NewPipelineError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewPipelineError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.ErrPipelineNotFound
	}

	return nil
}

func (p *Persistence) SaveRun(ctx context.Context, run *models.RunRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, pipeline_id, status, items_routed, items_unrouted, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status
		  , items_routed = EXCLUDED.items_routed
		  , items_unrouted = EXCLUDED.items_unrouted
		  , error = EXCLUDED.error
		  , finished_at = EXCLUDED.finished_at
	`, run.ID, run.PipelineID, run.Status, run.ItemsRouted, run.ItemsUnrouted, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	run := &models.RunRecord{}

	err := p.db.QueryRowContext(ctx, `
		SELECT id, pipeline_id, status, items_routed, items_unrouted, error, started_at, finished_at
		FROM pipeline_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.PipelineID, &run.Status, &run.ItemsRouted, &run.ItemsUnrouted,
		&run.Error, &run.StartedAt, &run.FinishedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrRunNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}

	return run, nil
}

func (p *Persistence) RunsByPipeline(ctx context.Context, pipelineID string) ([]*models.RunRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, pipeline_id, status, items_routed, items_unrouted, error, started_at, finished_at
		FROM pipeline_runs
		WHERE pipeline_id = $1
		ORDER BY started_at DESC
	`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.RunRecord, 0)

	for rows.Next() {
		run := &models.RunRecord{}

		err := rows.Scan(&run.ID, &run.PipelineID, &run.Status, &run.ItemsRouted, &run.ItemsUnrouted,
			&run.Error, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
