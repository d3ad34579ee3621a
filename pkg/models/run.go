package models

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted metadata of one pipeline run. The engine records
// routing outcomes here; scheduling and retries belong to the job dispatcher.
type RunRecord struct {
	ID            string     `json:"id"                  validate:"required"`
	PipelineID    string     `json:"pipeline_id"         validate:"required"`
	Status        RunStatus  `json:"status"              validate:"required"`
	ItemsRouted   int        `json:"items_routed"`
	ItemsUnrouted int        `json:"items_unrouted"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
