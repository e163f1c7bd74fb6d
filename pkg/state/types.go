// Package state persists completion markers, run records, and the
// append-only event log in a local SQLite database, so a later invocation
// of the same script observes prior completions.
package state

import (
	"context"
	"time"
)

// RunStatus represents the status of a provisioning run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusAborted   RunStatus = "aborted"
)

// StepStatus represents the recorded outcome of one executed step.
type StepStatus string

const (
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusAborted   StepStatus = "aborted"
)

// EventLevel represents the severity level of a persisted event.
type EventLevel string

const (
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// CompletionRecord is the persisted fact that a step family completed
// within a time bucket. The bucket is embedded in the marker id by caller
// convention ("shell-env-2026-08-23"); the store only checks key presence.
type CompletionRecord struct {
	MarkerID    string    `json:"marker_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunRecord describes one invocation of the tool.
type RunRecord struct {
	ID          string     `json:"id"`
	Mode        string     `json:"mode"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LogFile     string     `json:"log_file"`
	Error       *string    `json:"error,omitempty"`
}

// StepRecord is the persisted outcome of one step within a run.
type StepRecord struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	StepID      string     `json:"step_id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Detail      *string    `json:"detail,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
}

// Event is one append-only log event tied to a run.
type Event struct {
	ID        int64      `json:"id"`
	RunID     *string    `json:"run_id,omitempty"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store defines the persistence contract. A read failure must be treated by
// callers as "not completed": the engine fails open toward re-execution,
// never toward skipping work.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Completion markers
	IsCompleted(ctx context.Context, markerID string) (bool, error)
	MarkCompleted(ctx context.Context, markerID string) error
	ListCompletions(ctx context.Context, limit, offset int) ([]*CompletionRecord, error)

	// Run records
	CreateRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, errMsg *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*RunRecord, error)

	// Step records
	RecordStep(ctx context.Context, step *StepRecord) error
	ListStepsByRun(ctx context.Context, runID string) ([]*StepRecord, error)

	// Events
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, runID *string, limit, offset int) ([]*Event, error)
}
