// Package engine provides the idempotent installation orchestration core:
// a planner that collects named steps before anything runs, and an executor
// that runs each step at most once per time bucket with consistent logging
// and failure handling. The engine never knows what a step does.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Criticality is a step's declared failure policy.
type Criticality string

const (
	// CriticalityFatal aborts the remaining plan on failure.
	CriticalityFatal Criticality = "fatal"

	// CriticalityWarn logs a warning on failure and continues.
	CriticalityWarn Criticality = "warn-and-continue"
)

// Operation is the work a step performs. It must be safe to invoke a second
// time: the completion marker only throttles re-runs within a time bucket,
// it is not a correctness guarantee.
type Operation func(ctx context.Context) error

// Step is a single named, ordered unit of work.
type Step struct {
	// ID is unique within a run.
	ID string

	// Description is the human-readable manifest line.
	Description string

	// MarkerID, when non-empty, keys the completion record that makes the
	// step skippable within its time bucket. Build it with DailyMarker.
	MarkerID string

	// Criticality is the failure policy applied by the executor.
	Criticality Criticality

	// Operation performs the step's work.
	Operation Operation
}

// DailyMarker builds a marker id for a step family bucketed by calendar
// day: re-running within the same day skips the step, the next day runs
// it again.
func DailyMarker(family string, now time.Time) string {
	return fmt.Sprintf("%s-%s", family, now.Format("2006-01-02"))
}

// Outcome is the executor's verdict on one step.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeAborted   Outcome = "aborted"
)

// StepResult records the executor's verdict on one step.
type StepResult struct {
	ID          string
	Description string
	Outcome     Outcome
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Summary is the full-run report: which steps succeeded, which were skipped
// as already completed, and which failed.
type Summary struct {
	Results   []StepResult
	Succeeded int
	Skipped   int
	Failed    int
	Aborted   int

	fatalFailed bool
}

// FatalFailure reports whether the run was cut short by a fatal step.
func (s *Summary) FatalFailure() bool {
	return s.fatalFailed
}

// add records one result and updates the counters.
func (s *Summary) add(r StepResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	case OutcomeAborted:
		s.Aborted++
	}
}

// Render writes the human-readable run summary: the inspectable state of a
// partial run without reading the raw log file.
func (s *Summary) Render(w io.Writer) {
	fmt.Fprintf(w, "\nRun summary: %d succeeded, %d skipped, %d failed, %d aborted\n",
		s.Succeeded, s.Skipped, s.Failed, s.Aborted)
	for _, r := range s.Results {
		var mark string
		switch r.Outcome {
		case OutcomeSucceeded:
			mark = "ok"
		case OutcomeSkipped:
			mark = "--"
		case OutcomeFailed:
			mark = "!!"
		case OutcomeAborted:
			mark = "xx"
		}
		if r.Err != nil {
			fmt.Fprintf(w, "  [%s] %s: %v\n", mark, r.Description, r.Err)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, r.Description)
	}
}
