package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TransitionRecord describes one guarded stage/status change plus its audit
// entry. FromStage is the optimistic guard: the update applies only while the
// job row still sits at that stage, so concurrent transitions resolve to one
// winner and one ErrStageConflict.
type TransitionRecord struct {
	JobID          int64
	FromStage      Stage
	ToStage        Stage
	Status         Status
	CompletedStage Stage
	HasCompletion  bool
	OverrideReason string
	Actor          string
	Action         string
	Message        string
	RequestID      string
}

// ApplyTransition atomically updates a job's stage and status, stamps the
// completed stage exactly once, and appends the audit entry. The whole record
// commits in a single transaction; no intermediate state is observable.
func (s *Store) ApplyTransition(ctx context.Context, rec TransitionRecord) (*Job, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			res sql.Result
			err error
		)
		if rec.OverrideReason != "" {
			res, err = tx.ExecContext(ctx,
				`UPDATE jobs SET current_stage = ?, status = ?, override_reason = ?, updated_at = ?
                 WHERE id = ? AND current_stage = ?`,
				rec.ToStage, rec.Status, rec.OverrideReason, now, rec.JobID, rec.FromStage,
			)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE jobs SET current_stage = ?, status = ?, updated_at = ?
                 WHERE id = ? AND current_stage = ?`,
				rec.ToStage, rec.Status, now, rec.JobID, rec.FromStage,
			)
		}
		if err != nil {
			return fmt.Errorf("update job row: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE id = ?`, rec.JobID).Scan(&exists); err != nil {
				return fmt.Errorf("check job exists: %w", err)
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrStageConflict
		}

		if rec.HasCompletion {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO stage_completions (job_id, stage, completed_at) VALUES (?, ?, ?)`,
				rec.JobID, rec.CompletedStage, now,
			); err != nil {
				return fmt.Errorf("record stage completion: %w", err)
			}
		}

		if rec.Action != "" {
			if err := insertAudit(ctx, tx, AuditEntry{
				JobID:     rec.JobID,
				Stage:     rec.ToStage,
				Action:    rec.Action,
				Actor:     rec.Actor,
				Message:   rec.Message,
				RequestID: rec.RequestID,
			}, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, rec.JobID)
}

// StageOutcome captures everything a finished stage processor run needs to
// persist: the result payload, the job's new status, warnings, and the audit
// entry. Reprocessing overwrites the prior result row for the same stage.
type StageOutcome struct {
	JobID        int64
	Stage        Stage
	Status       Status
	Payload      string
	Success      bool
	ErrorMessage string
	Warnings     []Warning
	Actor        string
	Action       string
	Message      string
	RequestID    string
}

// FinalizeStage persists a stage processor outcome in one transaction. The
// status update is guarded: it applies only while the row still sits at the
// processed stage in processing status, so a finalize that lost a race with
// a concurrent transition rolls back whole and returns ErrStageConflict.
func (s *Store) FinalizeStage(ctx context.Context, outcome StageOutcome) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	payload := outcome.Payload
	if payload == "" {
		payload = "{}"
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stage_results (job_id, stage, payload, success, error_message, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(job_id, stage) DO UPDATE SET
                 payload = excluded.payload,
                 success = excluded.success,
                 error_message = excluded.error_message,
                 updated_at = excluded.updated_at`,
			outcome.JobID, outcome.Stage, payload, boolToInt(outcome.Success),
			nullableString(outcome.ErrorMessage), now,
		); err != nil {
			return fmt.Errorf("upsert stage result: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
             WHERE id = ? AND current_stage = ? AND status = ?`,
			outcome.Status, nullableString(outcome.ErrorMessage), now,
			outcome.JobID, outcome.Stage, StatusProcessing,
		)
		if err != nil {
			return fmt.Errorf("update job status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE id = ?`, outcome.JobID).Scan(&exists); err != nil {
				return fmt.Errorf("check job exists: %w", err)
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrStageConflict
		}

		for _, warning := range outcome.Warnings {
			if err := insertWarning(ctx, tx, outcome.JobID, outcome.Stage, warning, now); err != nil {
				return err
			}
		}

		if outcome.Action != "" {
			if err := insertAudit(ctx, tx, AuditEntry{
				JobID:     outcome.JobID,
				Stage:     outcome.Stage,
				Action:    outcome.Action,
				Actor:     outcome.Actor,
				Message:   outcome.Message,
				RequestID: outcome.RequestID,
			}, now); err != nil {
				return err
			}
		}
		return nil
	})
}
