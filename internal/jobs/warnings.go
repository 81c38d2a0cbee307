package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func insertWarning(ctx context.Context, tx *sql.Tx, jobID int64, stage Stage, warning Warning, timestamp string) error {
	severity := warning.Severity
	if severity == "" {
		severity = SeverityWarning
	}
	warningStage := warning.Stage
	if !warningStage.Persisted() || warningStage == StageIngested {
		warningStage = stage
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO warnings (job_id, stage, severity, category, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, warningStage, severity, warning.Category, warning.Message, timestamp,
	); err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}

// AddWarnings records warnings for a job outside a stage finalize.
func (s *Store) AddWarnings(ctx context.Context, jobID int64, stage Stage, warnings []Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, warning := range warnings {
			if err := insertWarning(ctx, tx, jobID, stage, warning, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// WarningsForJob returns all warnings recorded for a job, oldest first.
func (s *Store) WarningsForJob(ctx context.Context, jobID int64) ([]Warning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, stage, severity, category, message, created_at
         FROM warnings WHERE job_id = ? ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []Warning
	for rows.Next() {
		var (
			warning    Warning
			stage      int64
			severity   string
			createdRaw string
		)
		if err := rows.Scan(&warning.ID, &warning.JobID, &stage, &severity, &warning.Category, &warning.Message, &createdRaw); err != nil {
			return nil, err
		}
		warning.Stage = Stage(stage)
		warning.Severity = Severity(severity)
		if ts, err := parseTimeString(createdRaw); err == nil {
			warning.CreatedAt = ts
		}
		warnings = append(warnings, warning)
	}
	return warnings, rows.Err()
}

// CriticalCount returns the number of critical warnings for a job at a stage.
// The validation stage's branch decision reads this.
func (s *Store) CriticalCount(ctx context.Context, jobID int64, stage Stage) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM warnings WHERE job_id = ? AND stage = ? AND severity = ?`,
		jobID, stage, SeverityCritical,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count critical warnings: %w", err)
	}
	return count, nil
}

// WarningsSummaryForJob aggregates warning counts per severity.
func (s *Store) WarningsSummaryForJob(ctx context.Context, jobID int64) (WarningsSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, COUNT(1) FROM warnings WHERE job_id = ? GROUP BY severity`,
		jobID,
	)
	if err != nil {
		return WarningsSummary{}, fmt.Errorf("query warnings summary: %w", err)
	}
	defer rows.Close()

	var summary WarningsSummary
	for rows.Next() {
		var (
			severity string
			count    int
		)
		if err := rows.Scan(&severity, &count); err != nil {
			return WarningsSummary{}, err
		}
		switch Severity(severity) {
		case SeverityCritical:
			summary.Critical = count
		case SeverityWarning:
			summary.Warning = count
		case SeverityInfo:
			summary.Info = count
		}
	}
	return summary, rows.Err()
}
