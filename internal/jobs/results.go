package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ResultFor returns the persisted processor result for a job and stage, or
// nil when the stage has not produced one yet.
func (s *Store) ResultFor(ctx context.Context, jobID int64, stage Stage) (*StageResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, stage, payload, success, error_message, updated_at
         FROM stage_results WHERE job_id = ? AND stage = ?`,
		jobID, stage,
	)

	var (
		result       StageResult
		stageRaw     int64
		success      int64
		errorMessage sql.NullString
		updatedRaw   string
	)
	err := row.Scan(&result.JobID, &stageRaw, &result.Payload, &success, &errorMessage, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage result: %w", err)
	}
	result.Stage = Stage(stageRaw)
	result.Success = success != 0
	result.ErrorMessage = errorMessage.String
	if ts, err := parseTimeString(updatedRaw); err == nil {
		result.UpdatedAt = ts
	}
	return &result, nil
}

// ResultsForJob returns all persisted stage results for a job keyed by stage.
func (s *Store) ResultsForJob(ctx context.Context, jobID int64) (map[Stage]*StageResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, stage, payload, success, error_message, updated_at
         FROM stage_results WHERE job_id = ? ORDER BY stage`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer rows.Close()

	results := make(map[Stage]*StageResult)
	for rows.Next() {
		var (
			result       StageResult
			stageRaw     int64
			success      int64
			errorMessage sql.NullString
			updatedRaw   string
		)
		if err := rows.Scan(&result.JobID, &stageRaw, &result.Payload, &success, &errorMessage, &updatedRaw); err != nil {
			return nil, err
		}
		result.Stage = Stage(stageRaw)
		result.Success = success != 0
		result.ErrorMessage = errorMessage.String
		if ts, err := parseTimeString(updatedRaw); err == nil {
			result.UpdatedAt = ts
		}
		copied := result
		results[copied.Stage] = &copied
	}
	return results, rows.Err()
}
