package api

import (
	"context"
	"errors"
	"time"

	"slate/internal/jobs"
)

// JobReader abstracts job persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	JobsByStage(ctx context.Context, stage jobs.Stage) ([]*jobs.Job, error)
	GetByID(ctx context.Context, id int64) (*jobs.Job, error)
	ResultsForJob(ctx context.Context, jobID int64) (map[jobs.Stage]*jobs.StageResult, error)
	WarningsForJob(ctx context.Context, jobID int64) ([]jobs.Warning, error)
	WarningsSummaryForJob(ctx context.Context, jobID int64) (jobs.WarningsSummary, error)
	StageCompletions(ctx context.Context, jobID int64) (map[jobs.Stage]time.Time, error)
	AuditTrail(ctx context.Context, jobID int64) ([]jobs.AuditEntry, error)
	Stats(ctx context.Context) (jobs.Stats, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...jobs.Status) ([]JobItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(items), nil
}

// ListByStage returns jobs currently sitting at one stage.
func (s *JobService) ListByStage(ctx context.Context, target jobs.Stage) ([]JobItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.JobsByStage(ctx, target)
	if err != nil {
		return nil, err
	}
	return FromJobs(items), nil
}

// Describe assembles the full detail view for one job: the record itself
// plus its stage results, warnings, and completion stamps.
func (s *JobService) Describe(ctx context.Context, id int64) (*JobDetailResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	results, err := s.store.ResultsForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	warnings, err := s.store.WarningsForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.WarningsSummaryForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	completions, err := s.store.StageCompletions(ctx, id)
	if err != nil {
		return nil, err
	}

	return &JobDetailResponse{
		Job:         FromJob(job),
		Results:     FromStageResults(results),
		Warnings:    FromWarnings(warnings),
		Counts:      WarningCounts{Critical: summary.Critical, Warning: summary.Warning, Info: summary.Info},
		Completions: FromCompletions(completions),
	}, nil
}

// Audit returns a job's audit trail in API form.
func (s *JobService) Audit(ctx context.Context, id int64) ([]AuditEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.AuditTrail(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromAuditEntries(entries), nil
}

// Stats returns job summary counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return FromStats(stats), nil
}
