package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewJobParams describes a job to create at batch ingestion.
type NewJobParams struct {
	BatchID      string
	Title        string
	DesignFile   string
	TemplateFile string
	Priority     int
}

// CreateJob inserts a new job at the ingestion stage with pending status.
func (s *Store) CreateJob(ctx context.Context, params NewJobParams) (*Job, error) {
	if params.BatchID == "" {
		return nil, errors.New("batch id is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            batch_id, title, design_file, template_file, priority,
            current_stage, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.BatchID,
		params.Title,
		params.DesignFile,
		params.TemplateFile,
		params.Priority,
		StageIngested,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), ordered by priority then creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY priority DESC, created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// JobsByStage returns jobs currently at the given stage.
func (s *Store) JobsByStage(ctx context.Context, stage Stage) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE current_stage = ? ORDER BY priority DESC, created_at, id`,
		stage,
	)
	if err != nil {
		return nil, fmt.Errorf("query by stage: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// JobsForBatch returns all jobs created together in one batch.
func (s *Store) JobsForBatch(ctx context.Context, batchID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE batch_id = ? ORDER BY priority DESC, created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query by batch: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// Stats aggregates job counts per lifecycle state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch Status(statusStr) {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusAwaitingReview:
			stats.AwaitingReview = count
		case StatusAwaitingValidationReview:
			stats.AwaitingValidationReview = count
		case StatusAwaitingApproval:
			stats.AwaitingApproval = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// Health returns diagnostic information about the job database.
func (s *Store) Health(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{DBPath: s.path}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		health.Error = fmt.Sprintf("read schema version: %v", err)
		return health
	}
	health.DatabaseExists = true
	health.DatabaseReadable = true
	health.SchemaVersion = fmt.Sprintf("%d", version)

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err == nil {
		health.IntegrityCheck = integrity == "ok"
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs").Scan(&health.TotalJobs); err != nil {
		health.Error = fmt.Sprintf("count jobs: %v", err)
	}
	return health
}

// StageCompletions returns the per-stage completion timestamps for a job.
func (s *Store) StageCompletions(ctx context.Context, jobID int64) (map[Stage]time.Time, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT stage, completed_at FROM stage_completions WHERE job_id = ? ORDER BY stage`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage completions: %w", err)
	}
	defer rows.Close()

	completions := make(map[Stage]time.Time)
	for rows.Next() {
		var (
			stage int64
			raw   string
		)
		if err := rows.Scan(&stage, &raw); err != nil {
			return nil, err
		}
		if ts, err := parseTimeString(raw); err == nil {
			completions[Stage(stage)] = ts
		}
	}
	return completions, rows.Err()
}
