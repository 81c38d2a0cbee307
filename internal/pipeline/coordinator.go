package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"slate/internal/jobs"
	"slate/internal/stage"
)

// PreprocessingState describes the lifecycle of one stage's background work.
type PreprocessingState string

const (
	PreprocessingNotStarted PreprocessingState = "not_started"
	PreprocessingInProgress PreprocessingState = "in_progress"
	PreprocessingCompleted  PreprocessingState = "completed"
	PreprocessingFailed     PreprocessingState = "failed"
)

type handleKey struct {
	jobID int64
	stage jobs.Stage
}

// Handle tracks one live preprocessing task.
type Handle struct {
	JobID       int64
	TargetStage jobs.Stage
	StartedAt   time.Time
}

// finalizeFunc receives the processor outcome once the task finishes. A
// non-nil error means the processor failed or timed out.
type finalizeFunc func(ctx context.Context, job *jobs.Job, result stage.Result, err error)

// Coordinator runs stage processors off the caller's critical path. At most
// one task per (job, stage) pair is live at a time; duplicates are absorbed.
type Coordinator struct {
	mu      sync.Mutex
	handles map[handleKey]*Handle
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewCoordinator builds a coordinator bounding concurrency and per-task time.
func NewCoordinator(maxConcurrent int, timeout time.Duration) *Coordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Coordinator{
		handles: make(map[handleKey]*Handle),
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
	}
}

// Launch starts the processor for a job asynchronously. It returns false
// when a task for the same (job, stage) pair is already live; the duplicate
// request is a no-op. The finalize callback always runs, success or failure,
// and the handle is removed afterwards in every case.
func (c *Coordinator) Launch(job *jobs.Job, processor stage.Processor, finalize finalizeFunc) bool {
	key := handleKey{jobID: job.ID, stage: processor.Stage()}

	c.mu.Lock()
	if _, live := c.handles[key]; live {
		c.mu.Unlock()
		return false
	}
	c.handles[key] = &Handle{JobID: job.ID, TargetStage: processor.Stage(), StartedAt: time.Now()}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.handles, key)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.sem.Acquire(ctx, 1); err != nil {
			finalize(context.Background(), job, stage.Result{}, err)
			return
		}
		result, err := processor.Process(ctx, job)
		c.sem.Release(1)

		// Finalization must not be cut short by the task timeout.
		finalize(context.Background(), job, result, err)
	}()
	return true
}

// Live reports whether a task is currently running for the pair.
func (c *Coordinator) Live(jobID int64, target jobs.Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, live := c.handles[handleKey{jobID: jobID, stage: target}]
	return live
}

// Handles returns a snapshot of all live tasks.
func (c *Coordinator) Handles() []Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Handle, 0, len(c.handles))
	for _, handle := range c.handles {
		snapshot = append(snapshot, *handle)
	}
	return snapshot
}

// Wait blocks until all in-flight tasks have finalized.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
