package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func insertAudit(ctx context.Context, tx *sql.Tx, entry AuditEntry, timestamp string) error {
	actor := entry.Actor
	if actor == "" {
		actor = SystemActor
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (job_id, stage, action, actor, message, request_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.JobID, entry.Stage, entry.Action, actor,
		nullableString(entry.Message), nullableString(entry.RequestID), timestamp,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AppendAudit records a standalone audit entry outside a stage transition.
func (s *Store) AppendAudit(ctx context.Context, entry AuditEntry) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertAudit(ctx, tx, entry, now)
	})
}

// AuditTrail returns the full ordered history for a job, oldest first.
func (s *Store) AuditTrail(ctx context.Context, jobID int64) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, stage, action, actor, message, request_id, created_at
         FROM audit_log WHERE job_id = ? ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			entry      AuditEntry
			stage      int64
			message    sql.NullString
			requestID  sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.JobID, &stage, &entry.Action, &entry.Actor, &message, &requestID, &createdRaw); err != nil {
			return nil, err
		}
		entry.Stage = Stage(stage)
		entry.Message = message.String
		entry.RequestID = requestID.String
		if ts, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
