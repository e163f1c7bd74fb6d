package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/homeforge/homeforge/pkg/logging"
	"github.com/homeforge/homeforge/pkg/state"
)

// mockStore is an in-memory state.Store for executor tests. Error injection
// fields simulate store I/O failures.
type mockStore struct {
	completions map[string]time.Time
	steps       []*state.StepRecord
	events      []*state.Event

	failIsCompleted   bool
	failMarkCompleted bool
	failRecordStep    bool
}

func newMockStore() *mockStore {
	return &mockStore{completions: make(map[string]time.Time)}
}

func (m *mockStore) Init(ctx context.Context) error        { return nil }
func (m *mockStore) Close() error                          { return nil }
func (m *mockStore) Migrate(ctx context.Context) error     { return nil }
func (m *mockStore) HealthCheck(ctx context.Context) error { return nil }

func (m *mockStore) IsCompleted(ctx context.Context, markerID string) (bool, error) {
	if m.failIsCompleted {
		return false, errors.New("simulated read failure")
	}
	_, ok := m.completions[markerID]
	return ok, nil
}

func (m *mockStore) MarkCompleted(ctx context.Context, markerID string) error {
	if m.failMarkCompleted {
		return errors.New("simulated write failure")
	}
	m.completions[markerID] = time.Now()
	return nil
}

func (m *mockStore) ListCompletions(ctx context.Context, limit, offset int) ([]*state.CompletionRecord, error) {
	var records []*state.CompletionRecord
	for id, at := range m.completions {
		records = append(records, &state.CompletionRecord{MarkerID: id, CompletedAt: at})
	}
	return records, nil
}

func (m *mockStore) CreateRun(ctx context.Context, run *state.RunRecord) error { return nil }
func (m *mockStore) GetRun(ctx context.Context, id string) (*state.RunRecord, error) {
	return nil, errors.New("not found")
}
func (m *mockStore) UpdateRunStatus(ctx context.Context, id string, status state.RunStatus, errMsg *string) error {
	return nil
}
func (m *mockStore) ListRuns(ctx context.Context, limit, offset int) ([]*state.RunRecord, error) {
	return nil, nil
}

func (m *mockStore) RecordStep(ctx context.Context, step *state.StepRecord) error {
	if m.failRecordStep {
		return errors.New("simulated write failure")
	}
	step.ID = int64(len(m.steps) + 1)
	m.steps = append(m.steps, step)
	return nil
}

func (m *mockStore) ListStepsByRun(ctx context.Context, runID string) ([]*state.StepRecord, error) {
	return m.steps, nil
}

func (m *mockStore) AppendEvent(ctx context.Context, event *state.Event) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(ctx context.Context, runID *string, limit, offset int) ([]*state.Event, error) {
	return m.events, nil
}

func testRunContext(store state.Store) *RunContext {
	return &RunContext{
		RunID:     "test-run",
		Mode:      "full",
		StartedAt: time.Now(),
		Log:       logging.NewDiscard(),
		Store:     store,
	}
}

func succeedingStep(id string) Step {
	return Step{
		ID:          id,
		Description: "step " + id,
		Criticality: CriticalityFatal,
		Operation:   func(ctx context.Context) error { return nil },
	}
}

func TestExecuteAllSucceed(t *testing.T) {
	store := newMockStore()
	exec := NewExecutor(testRunContext(store))

	summary, err := exec.Execute(context.Background(), []Step{
		succeedingStep("a"), succeedingStep("b"), succeedingStep("c"),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 {
		t.Errorf("expected 3 succeeded, got %d succeeded %d failed", summary.Succeeded, summary.Failed)
	}
	if len(store.steps) != 3 {
		t.Errorf("expected 3 step records, got %d", len(store.steps))
	}
	for i, want := range []string{"a", "b", "c"} {
		if store.steps[i].StepID != want {
			t.Errorf("step record %d: expected %q, got %q", i, want, store.steps[i].StepID)
		}
	}
}

func TestExecuteSkipsCompletedMarker(t *testing.T) {
	store := newMockStore()
	store.completions["shell-env-2026-08-23"] = time.Now()

	ran := false
	step := Step{
		ID:          "shell-env",
		Description: "configure shell environment",
		MarkerID:    "shell-env-2026-08-23",
		Criticality: CriticalityFatal,
		Operation: func(ctx context.Context) error {
			ran = true
			return nil
		},
	}

	summary, err := NewExecutor(testRunContext(store)).Execute(context.Background(), []Step{step})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ran {
		t.Error("operation ran despite completion marker")
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", summary.Skipped)
	}
}

func TestExecuteDifferentBucketRuns(t *testing.T) {
	store := newMockStore()
	store.completions["shell-env-2026-08-22"] = time.Now()

	ran := false
	step := Step{
		ID:          "shell-env",
		Description: "configure shell environment",
		MarkerID:    "shell-env-2026-08-23",
		Criticality: CriticalityFatal,
		Operation: func(ctx context.Context) error {
			ran = true
			return nil
		},
	}

	if _, err := NewExecutor(testRunContext(store)).Execute(context.Background(), []Step{step}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !ran {
		t.Error("prior-day marker suppressed execution in a new bucket")
	}
	if _, ok := store.completions["shell-env-2026-08-23"]; !ok {
		t.Error("new bucket marker was not recorded")
	}
}

func TestExecuteStoreReadFailureRunsStep(t *testing.T) {
	store := newMockStore()
	store.completions["pkg-core-2026-08-23"] = time.Now()
	store.failIsCompleted = true

	ran := false
	step := Step{
		ID:          "pkg-core",
		Description: "install core packages",
		MarkerID:    "pkg-core-2026-08-23",
		Criticality: CriticalityFatal,
		Operation: func(ctx context.Context) error {
			ran = true
			return nil
		},
	}

	if _, err := NewExecutor(testRunContext(store)).Execute(context.Background(), []Step{step}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !ran {
		t.Error("store read failure must force re-execution, not a skip")
	}
}

func TestExecuteMarkWriteFailureDoesNotFailStep(t *testing.T) {
	store := newMockStore()
	store.failMarkCompleted = true

	step := Step{
		ID:          "fonts",
		Description: "install fonts",
		MarkerID:    "fonts-2026-08-23",
		Criticality: CriticalityFatal,
		Operation:   func(ctx context.Context) error { return nil },
	}

	summary, err := NewExecutor(testRunContext(store)).Execute(context.Background(), []Step{step})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("expected step to succeed despite marker write failure, got %+v", summary)
	}
}

func TestExecuteFatalFailureAbortsPlan(t *testing.T) {
	store := newMockStore()
	bRan := false

	steps := []Step{
		{
			ID:          "a",
			Description: "step a",
			Criticality: CriticalityFatal,
			Operation:   func(ctx context.Context) error { return errors.New("boom") },
		},
		{
			ID:          "b",
			Description: "step b",
			Criticality: CriticalityFatal,
			Operation: func(ctx context.Context) error {
				bRan = true
				return nil
			},
		},
	}

	summary, err := NewExecutor(testRunContext(store)).Execute(context.Background(), steps)
	if err == nil {
		t.Fatal("expected error from fatal step failure")
	}
	if !IsStep(err) {
		t.Errorf("expected step-class error, got %v", err)
	}
	var runErr *RunError
	if errors.As(err, &runErr) && runErr.StepID != "a" {
		t.Errorf("expected step context %q, got %q", "a", runErr.StepID)
	}
	if bRan {
		t.Error("step after fatal failure must not run")
	}
	if !summary.FatalFailure() {
		t.Error("summary should report a fatal failure")
	}
	if summary.Failed != 1 || summary.Aborted != 1 {
		t.Errorf("expected 1 failed 1 aborted, got %d failed %d aborted", summary.Failed, summary.Aborted)
	}
}

func TestExecuteWarnFailureContinues(t *testing.T) {
	store := newMockStore()
	bRan := false

	steps := []Step{
		{
			ID:          "a",
			Description: "step a",
			Criticality: CriticalityWarn,
			Operation:   func(ctx context.Context) error { return errors.New("boom") },
		},
		{
			ID:          "b",
			Description: "step b",
			Criticality: CriticalityFatal,
			Operation: func(ctx context.Context) error {
				bRan = true
				return nil
			},
		},
	}

	summary, err := NewExecutor(testRunContext(store)).Execute(context.Background(), steps)
	if err != nil {
		t.Fatalf("warn-and-continue failure must not abort the run: %v", err)
	}
	if !bRan {
		t.Error("plan should continue past a warn-and-continue failure")
	}
	if summary.Failed != 1 || summary.Succeeded != 1 {
		t.Errorf("expected 1 failed 1 succeeded, got %+v", summary)
	}
	if summary.FatalFailure() {
		t.Error("warn-and-continue failure should not be fatal")
	}
}

func TestExecuteFailedStepNotMarkedCompleted(t *testing.T) {
	store := newMockStore()
	step := Step{
		ID:          "dotfiles",
		Description: "link dotfiles",
		MarkerID:    "dotfiles-2026-08-23",
		Criticality: CriticalityWarn,
		Operation:   func(ctx context.Context) error { return errors.New("boom") },
	}

	if _, err := NewExecutor(testRunContext(store)).Execute(context.Background(), []Step{step}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, ok := store.completions["dotfiles-2026-08-23"]; ok {
		t.Error("failed step must not leave a completion marker")
	}
}

func TestExecuteCancelledContextAborts(t *testing.T) {
	store := newMockStore()
	ctx, cancel := context.WithCancel(context.Background())

	steps := []Step{
		{
			ID:          "a",
			Description: "step a",
			Criticality: CriticalityFatal,
			Operation: func(opCtx context.Context) error {
				cancel()
				return nil
			},
		},
		succeedingStep("b"),
		succeedingStep("c"),
	}

	summary, err := NewExecutor(testRunContext(store)).Execute(ctx, steps)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if summary.Succeeded != 1 || summary.Aborted != 2 {
		t.Errorf("expected 1 succeeded 2 aborted, got %+v", summary)
	}
}

func TestExecuteRecordStepFailureDoesNotAffectRun(t *testing.T) {
	store := newMockStore()
	store.failRecordStep = true

	summary, err := NewExecutor(testRunContext(store)).Execute(context.Background(),
		[]Step{succeedingStep("a")})
	if err != nil {
		t.Fatalf("step record write failure must not fail the run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("expected 1 succeeded, got %+v", summary)
	}
}

func TestSummaryRender(t *testing.T) {
	summary := &Summary{}
	summary.add(StepResult{Description: "install packages", Outcome: OutcomeSucceeded})
	summary.add(StepResult{Description: "link dotfiles", Outcome: OutcomeSkipped})
	summary.add(StepResult{Description: "install fonts", Outcome: OutcomeFailed, Err: errors.New("boom")})

	var buf strings.Builder
	summary.Render(&buf)
	out := buf.String()

	for _, want := range []string{
		"1 succeeded, 1 skipped, 1 failed, 0 aborted",
		"[ok] install packages",
		"[--] link dotfiles",
		"[!!] install fonts: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}
