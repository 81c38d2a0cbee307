package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func placeJobAt(t *testing.T, store *Store, jobID int64, from, to Stage, status Status) {
	t.Helper()
	if _, err := store.ApplyTransition(context.Background(), TransitionRecord{
		JobID:     jobID,
		FromStage: from,
		ToStage:   to,
		Status:    status,
	}); err != nil {
		t.Fatalf("place job at %s: %v", to, err)
	}
}

func createTestJob(t *testing.T, store *Store) *Job {
	t.Helper()
	job, err := store.CreateJob(context.Background(), NewJobParams{
		BatchID:      "batch-1",
		Title:        "spring promo",
		DesignFile:   "/designs/spring.psd",
		TemplateFile: "/templates/promo.aepx",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestCreateJobStartsAtIngestion(t *testing.T) {
	store := newTestStore(t)
	job := createTestJob(t, store)

	if job.CurrentStage != StageIngested {
		t.Fatalf("current stage = %v, want %v", job.CurrentStage, StageIngested)
	}
	if job.Status != StatusPending {
		t.Fatalf("status = %v, want %v", job.Status, StatusPending)
	}
	if job.BatchID != "batch-1" {
		t.Fatalf("batch id = %q", job.BatchID)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestGetByIDMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetByID(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrdersByPriorityThenCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	low, err := store.CreateJob(ctx, NewJobParams{BatchID: "b", Title: "low"})
	if err != nil {
		t.Fatal(err)
	}
	high, err := store.CreateJob(ctx, NewJobParams{BatchID: "b", Title: "high", Priority: 5})
	if err != nil {
		t.Fatal(err)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("len = %d, want 2", len(listed))
	}
	if listed[0].ID != high.ID || listed[1].ID != low.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", listed[0].ID, listed[1].ID, high.ID, low.ID)
	}
}

func TestApplyTransitionUpdatesRowAndAudit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)

	updated, err := store.ApplyTransition(ctx, TransitionRecord{
		JobID:          job.ID,
		FromStage:      StageIngested,
		ToStage:        StageExtraction,
		Status:         StatusProcessing,
		CompletedStage: StageIngested,
		HasCompletion:  false,
		Actor:          SystemActor,
		Action:         ActionStageStarted,
		Message:        "batch ingested",
		RequestID:      "req-1",
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if updated.CurrentStage != StageExtraction || updated.Status != StatusProcessing {
		t.Fatalf("job = stage %v status %v", updated.CurrentStage, updated.Status)
	}

	trail, err := store.AuditTrail(ctx, job.ID)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(trail))
	}
	if trail[0].Action != ActionStageStarted || trail[0].RequestID != "req-1" {
		t.Fatalf("audit entry = %+v", trail[0])
	}
}

func TestApplyTransitionGuardRejectsStaleStage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)

	rec := TransitionRecord{
		JobID:     job.ID,
		FromStage: StageIngested,
		ToStage:   StageExtraction,
		Status:    StatusProcessing,
		Action:    ActionStageStarted,
	}
	if _, err := store.ApplyTransition(ctx, rec); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := store.ApplyTransition(ctx, rec); !errors.Is(err, ErrStageConflict) {
		t.Fatalf("second transition err = %v, want ErrStageConflict", err)
	}

	current, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.CurrentStage != StageExtraction {
		t.Fatalf("stage after conflict = %v, want %v", current.CurrentStage, StageExtraction)
	}
}

func TestApplyTransitionMissingJob(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ApplyTransition(context.Background(), TransitionRecord{
		JobID:     12345,
		FromStage: StageIngested,
		ToStage:   StageExtraction,
		Status:    StatusProcessing,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStageCompletionStampedOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)

	first, err := store.ApplyTransition(ctx, TransitionRecord{
		JobID:          job.ID,
		FromStage:      StageIngested,
		ToStage:        StageExtraction,
		Status:         StatusProcessing,
		CompletedStage: StageExtraction,
		HasCompletion:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = first

	completions, err := store.StageCompletions(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	original, ok := completions[StageExtraction]
	if !ok {
		t.Fatal("completion not stamped")
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := store.ApplyTransition(ctx, TransitionRecord{
		JobID:          job.ID,
		FromStage:      StageExtraction,
		ToStage:        StageMatchReview,
		Status:         StatusAwaitingReview,
		CompletedStage: StageExtraction,
		HasCompletion:  true,
	}); err != nil {
		t.Fatal(err)
	}

	completions, err = store.StageCompletions(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !completions[StageExtraction].Equal(original) {
		t.Fatalf("completion changed: %v -> %v", original, completions[StageExtraction])
	}
}

func TestFinalizeStageOverwritesResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)
	placeJobAt(t, store, job.ID, StageIngested, StageExtraction, StatusProcessing)

	outcome := StageOutcome{
		JobID:   job.ID,
		Stage:   StageExtraction,
		Status:  StatusProcessing,
		Payload: `{"matches":2}`,
		Success: true,
		Action:  ActionStageCompleted,
	}
	if err := store.FinalizeStage(ctx, outcome); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	outcome.Payload = `{"matches":3}`
	if err := store.FinalizeStage(ctx, outcome); err != nil {
		t.Fatalf("second finalize: %v", err)
	}

	result, err := store.ResultFor(ctx, job.ID, StageExtraction)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("missing result")
	}
	if result.Payload != `{"matches":3}` {
		t.Fatalf("payload = %s", result.Payload)
	}
	if !result.Success {
		t.Fatal("success flag lost")
	}
}

func TestFinalizeStageRecordsWarnings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)
	placeJobAt(t, store, job.ID, StageIngested, StageValidation, StatusProcessing)

	err := store.FinalizeStage(ctx, StageOutcome{
		JobID:   job.ID,
		Stage:   StageValidation,
		Status:  StatusAwaitingValidationReview,
		Success: true,
		Action:  ActionStageCompleted,
		Warnings: []Warning{
			{Severity: SeverityCritical, Category: "aspect_ratio", Message: "aspect ratio mismatch"},
			{Severity: SeverityInfo, Category: "fonts", Message: "font substituted"},
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	count, err := store.CriticalCount(ctx, job.ID, StageValidation)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("critical count = %d, want 1", count)
	}

	summary, err := store.WarningsSummaryForJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Critical != 1 || summary.Info != 1 || summary.Total() != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestFinalizeStageGuardRejectsMovedJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	job := createTestJob(t, store)
	placeJobAt(t, store, job.ID, StageIngested, StageExtraction, StatusProcessing)
	placeJobAt(t, store, job.ID, StageExtraction, StageMatchReview, StatusAwaitingReview)

	err := store.FinalizeStage(ctx, StageOutcome{
		JobID:   job.ID,
		Stage:   StageExtraction,
		Status:  StatusProcessing,
		Payload: `{"matches":1}`,
		Success: true,
		Action:  ActionStageCompleted,
	})
	if !errors.Is(err, ErrStageConflict) {
		t.Fatalf("err = %v, want ErrStageConflict", err)
	}

	current, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.CurrentStage != StageMatchReview || current.Status != StatusAwaitingReview {
		t.Fatalf("stale finalize clobbered the row: stage %v status %v", current.CurrentStage, current.Status)
	}

	// Whole transaction rolls back: no result row either.
	result, err := store.ResultFor(ctx, job.ID, StageExtraction)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("result persisted despite conflict: %+v", result)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createTestJob(t, store)
	second := createTestJob(t, store)
	if _, err := store.ApplyTransition(ctx, TransitionRecord{
		JobID:     second.ID,
		FromStage: StageIngested,
		ToStage:   StageExtraction,
		Status:    StatusProcessing,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Processing != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestParseStageRoundTrip(t *testing.T) {
	for stage := StageIngested; stage <= StageComplete; stage++ {
		parsed, ok := ParseStage(stage.String())
		if !ok || parsed != stage {
			t.Fatalf("ParseStage(%q) = %v %v", stage.String(), parsed, ok)
		}
	}
	if _, ok := ParseStage("bogus"); ok {
		t.Fatal("ParseStage accepted unknown name")
	}
}
