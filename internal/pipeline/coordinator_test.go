package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slate/internal/jobs"
	"slate/internal/stage"
)

type countingProcessor struct {
	stageVal jobs.Stage
	calls    atomic.Int64
	release  chan struct{}
	result   stage.Result
	err      error
}

func (p *countingProcessor) Stage() jobs.Stage { return p.stageVal }

func (p *countingProcessor) Process(ctx context.Context, _ *jobs.Job) (stage.Result, error) {
	p.calls.Add(1)
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return stage.Result{}, ctx.Err()
		}
	}
	return p.result, p.err
}

func (p *countingProcessor) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("counting")
}

func TestCoordinatorAbsorbsDuplicateLaunch(t *testing.T) {
	coordinator := NewCoordinator(4, time.Second)
	processor := &countingProcessor{stageVal: jobs.StageExtraction, release: make(chan struct{})}
	job := &jobs.Job{ID: 1, CurrentStage: jobs.StageExtraction}

	var finalized atomic.Int64
	finalize := func(context.Context, *jobs.Job, stage.Result, error) { finalized.Add(1) }

	if !coordinator.Launch(job, processor, finalize) {
		t.Fatal("first launch rejected")
	}
	if coordinator.Launch(job, processor, finalize) {
		t.Fatal("duplicate launch not absorbed")
	}
	if !coordinator.Live(job.ID, jobs.StageExtraction) {
		t.Fatal("handle not live during processing")
	}

	close(processor.release)
	coordinator.Wait()

	if got := processor.calls.Load(); got != 1 {
		t.Fatalf("processor ran %d times, want 1", got)
	}
	if got := finalized.Load(); got != 1 {
		t.Fatalf("finalize ran %d times, want 1", got)
	}
	if coordinator.Live(job.ID, jobs.StageExtraction) {
		t.Fatal("handle leaked after completion")
	}
}

func TestCoordinatorTimeoutFinalizesAsFailure(t *testing.T) {
	coordinator := NewCoordinator(1, 20*time.Millisecond)
	processor := &countingProcessor{stageVal: jobs.StageValidation, release: make(chan struct{})}
	job := &jobs.Job{ID: 2, CurrentStage: jobs.StageValidation}

	var (
		mu       sync.Mutex
		finalErr error
	)
	coordinator.Launch(job, processor, func(_ context.Context, _ *jobs.Job, _ stage.Result, err error) {
		mu.Lock()
		finalErr = err
		mu.Unlock()
	})
	coordinator.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(finalErr, context.DeadlineExceeded) {
		t.Fatalf("finalize err = %v, want deadline exceeded", finalErr)
	}
	if coordinator.Live(job.ID, jobs.StageValidation) {
		t.Fatal("handle leaked after timeout")
	}
}

func TestCoordinatorRunsDistinctJobsConcurrently(t *testing.T) {
	coordinator := NewCoordinator(2, time.Second)
	release := make(chan struct{})
	first := &countingProcessor{stageVal: jobs.StageExtraction, release: release}
	second := &countingProcessor{stageVal: jobs.StageExtraction, release: release}

	finalize := func(context.Context, *jobs.Job, stage.Result, error) {}
	if !coordinator.Launch(&jobs.Job{ID: 10}, first, finalize) {
		t.Fatal("first job launch rejected")
	}
	if !coordinator.Launch(&jobs.Job{ID: 11}, second, finalize) {
		t.Fatal("second job launch rejected")
	}

	deadline := time.After(time.Second)
	for first.calls.Load() == 0 || second.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("both jobs should run concurrently")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	coordinator.Wait()

	if len(coordinator.Handles()) != 0 {
		t.Fatalf("handles remain: %+v", coordinator.Handles())
	}
}
