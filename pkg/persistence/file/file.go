// Package file provides file-based persistence for pipelines and run records.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/persistence"
)

// Persistence stores each pipeline and run record as one JSON document under
// a root directory. Suitable for development and single-node deployments.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file persistence rooted at the given directory,
// accepting both plain paths and file:// URLs.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{pipelinesDir(cleanRoot), runsDir(cleanRoot)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persistence directory %s: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func pipelinesDir(root string) string { return filepath.Join(root, "pipelines") }
func runsDir(root string) string      { return filepath.Join(root, "runs") }

func (p *Persistence) pipelinePath(id string) string {
	return filepath.Join(pipelinesDir(p.root), id+".json")
}

func (p *Persistence) runPath(id string) string {
	return filepath.Join(runsDir(p.root), id+".json")
}

func (p *Persistence) Pipelines(ctx context.Context) ([]*models.Pipeline, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(pipelinesDir(p.root))
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	pipelines := make([]*models.Pipeline, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		pipeline, err := p.readPipeline(filepath.Join(pipelinesDir(p.root), entry.Name()))
		if err != nil {
			return nil, err
		}

		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}

func (p *Persistence) SavePipeline(ctx context.Context, pipeline *models.Pipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(pipeline, "", "  ")
	if err != nil {
		return persistence.NewPipelineError("Save", pipeline.ID, err)
	}

	if err := os.WriteFile(p.pipelinePath(pipeline.ID), data, 0o644); err != nil {
		return persistence.NewPipelineError("Save", pipeline.ID, err)
	}

	return nil
}

func (p *Persistence) PipelineByID(ctx context.Context, id string) (*models.Pipeline, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pipeline, err := p.readPipeline(p.pipelinePath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrPipelineNotFound
		}

		return nil, persistence.NewPipelineError("PipelineByID", id, err)
	}

	return pipeline, nil
}

func (p *Persistence) DeletePipeline(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.pipelinePath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrPipelineNotFound
		}

		return persistence.NewPipelineError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) SaveRun(ctx context.Context, run *models.RunRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	if err := os.WriteFile(p.runPath(run.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.ID, err)
	}

	return nil
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.runPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrRunNotFound
		}

		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}

	var run models.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run %s: %w", id, err)
	}

	return &run, nil
}

func (p *Persistence) RunsByPipeline(ctx context.Context, pipelineID string) ([]*models.RunRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(runsDir(p.root))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*models.RunRecord

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(runsDir(p.root), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read run file %s: %w", entry.Name(), err)
		}

		var run models.RunRecord
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("failed to parse run file %s: %w", entry.Name(), err)
		}

		if run.PipelineID == pipelineID {
			runs = append(runs, &run)
		}
	}

	return runs, nil
}

// HealthCheck verifies the root directory still exists.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(ctx context.Context) error {
	return nil
}

func (p *Persistence) readPipeline(path string) (*models.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pipeline models.Pipeline
	if err := json.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}

	return &pipeline, nil
}
