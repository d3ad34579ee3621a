// Package ingest provides the source node factory for registry integration.
package ingest

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/protocol"
)

// IngestNodeFactory creates source node payloads.
type IngestNodeFactory struct{}

// Create builds a source node. When a schedule is configured it must be a
// valid cron expression.
func (f *IngestNodeFactory) Create(_ context.Context, config map[string]any) (models.NodeData, error) {
	name, _ := config["name"].(string)

	if schedule, ok := config["schedule"].(string); ok && schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
		}
	}

	return models.SourceData{Name: name, Config: config}, nil
}

// ID returns the factory ID.
func (f *IngestNodeFactory) ID() string {
	return "ingest"
}

// Name returns the factory name.
func (f *IngestNodeFactory) Name() string {
	return "Ingest"
}

// Description returns the factory description.
func (f *IngestNodeFactory) Description() string {
	return "Introduces documents into the pipeline from a watched location, optionally on a cron schedule"
}

// Schema returns the JSON schema for ingest node configuration.
func (f *IngestNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Display name of the source",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "Location watched for new documents (directory, bucket or inbox)",
				"examples":    []string{"file:///var/docs/inbox", "s3://invoices/incoming"},
			},
			"schedule": map[string]any{
				"type":        "string",
				"description": "Optional cron expression for periodic polling",
				"examples":    []string{"*/5 * * * *", "0 2 * * *"},
			},
		},
		"required": []string{"location"},
	}
}

// NewIngestNodeFactory creates a new factory instance.
func NewIngestNodeFactory() protocol.NodeFactory {
	return &IngestNodeFactory{}
}
