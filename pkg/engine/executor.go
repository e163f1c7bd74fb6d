package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/homeforge/homeforge/pkg/logging"
	"github.com/homeforge/homeforge/pkg/state"
)

// Executor runs a plan strictly sequentially: one step at a time, in plan
// order. It never retries; re-running the whole script is the retry
// mechanism, which is why step operations must be idempotent.
type Executor struct {
	rc  *RunContext
	log *logging.Logger
}

// NewExecutor creates an executor bound to a run context.
func NewExecutor(rc *RunContext) *Executor {
	return &Executor{
		rc:  rc,
		log: rc.Log.WithComponent("executor"),
	}
}

// Execute runs every step in plan order and returns the full-run summary.
// A fatal step failure aborts the remaining plan and is returned as a
// step-class error; warn-and-continue failures only mark the summary.
func (e *Executor) Execute(ctx context.Context, plan []Step) (*Summary, error) {
	summary := &Summary{}

	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			e.log.Warn("run cancelled, aborting remaining steps")
			e.abortRemaining(ctx, summary, plan[i:])
			summary.fatalFailed = true
			return summary, NewStepError("run cancelled", err)
		}

		result := e.executeStep(ctx, step)
		summary.add(result)
		e.recordStep(ctx, step, result)

		if result.Outcome == OutcomeFailed && step.Criticality == CriticalityFatal {
			summary.fatalFailed = true
			e.log.Errorf("fatal step %q failed, aborting remaining plan", step.Description)
			e.appendEvent(ctx, state.EventLevelError,
				fmt.Sprintf("fatal step %s failed: %v", step.ID, result.Err))
			e.abortRemaining(ctx, summary, plan[i+1:])
			return summary, NewStepError("fatal step failed", result.Err).WithStep(step.ID)
		}
	}

	return summary, nil
}

// executeStep runs one step: skip when its marker is already present,
// otherwise invoke the operation and mark completion on success.
func (e *Executor) executeStep(ctx context.Context, step Step) StepResult {
	result := StepResult{
		ID:          step.ID,
		Description: step.Description,
		StartedAt:   time.Now(),
	}

	e.log.Infof("starting %s", step.Description)

	if step.MarkerID != "" {
		done, err := e.rc.Store.IsCompleted(ctx, step.MarkerID)
		if err != nil {
			// Fail open toward re-execution, never toward skipping work.
			e.log.Warnf("state store read failed for %s, re-running step: %v", step.MarkerID, err)
		}
		if done {
			e.log.Infof("skipping %s: already completed (%s)", step.Description, step.MarkerID)
			result.Outcome = OutcomeSkipped
			result.CompletedAt = time.Now()
			return result
		}
	}

	if err := step.Operation(ctx); err != nil {
		e.log.WithError(err).Errorf("failed %s", step.Description)
		e.appendEvent(ctx, state.EventLevelWarning,
			fmt.Sprintf("step %s failed: %v", step.ID, err))
		if step.Criticality == CriticalityWarn {
			e.log.Warnf("continuing after non-fatal failure of %s", step.Description)
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		result.CompletedAt = time.Now()
		return result
	}

	e.log.Successf("completed %s", step.Description)
	if step.MarkerID != "" {
		// Only success produces a completion record; a failed step must
		// never be skippable on the next run.
		if err := e.rc.Store.MarkCompleted(ctx, step.MarkerID); err != nil {
			e.log.Warnf("failed to record completion marker %s: %v", step.MarkerID, err)
		}
	}

	result.Outcome = OutcomeSucceeded
	result.CompletedAt = time.Now()
	return result
}

// abortRemaining marks steps that never ran as aborted.
func (e *Executor) abortRemaining(ctx context.Context, summary *Summary, remaining []Step) {
	for _, step := range remaining {
		now := time.Now()
		result := StepResult{
			ID:          step.ID,
			Description: step.Description,
			Outcome:     OutcomeAborted,
			StartedAt:   now,
			CompletedAt: now,
		}
		summary.add(result)
		e.recordStep(ctx, step, result)
	}
}

// recordStep persists a step outcome; store failures are logged, never
// allowed to affect control flow.
func (e *Executor) recordStep(ctx context.Context, step Step, result StepResult) {
	var detail *string
	if result.Err != nil {
		msg := result.Err.Error()
		detail = &msg
	}
	record := &state.StepRecord{
		RunID:       e.rc.RunID,
		StepID:      step.ID,
		Description: step.Description,
		Status:      stepStatus(result.Outcome),
		Detail:      detail,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
	}
	if err := e.rc.Store.RecordStep(ctx, record); err != nil {
		e.log.Warnf("failed to persist step record for %s: %v", step.ID, err)
	}
}

func (e *Executor) appendEvent(ctx context.Context, level state.EventLevel, message string) {
	event := &state.Event{
		RunID:   &e.rc.RunID,
		Level:   level,
		Message: message,
	}
	if err := e.rc.Store.AppendEvent(ctx, event); err != nil {
		e.log.Warnf("failed to append event: %v", err)
	}
}

func stepStatus(outcome Outcome) state.StepStatus {
	switch outcome {
	case OutcomeSucceeded:
		return state.StepStatusSucceeded
	case OutcomeSkipped:
		return state.StepStatusSkipped
	case OutcomeFailed:
		return state.StepStatusFailed
	default:
		return state.StepStatusAborted
	}
}
