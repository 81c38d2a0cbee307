package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, batch_id, title, design_file, template_file, priority, current_stage, status, override_reason, error_message, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             int64
		batchID        string
		title          sql.NullString
		designFile     sql.NullString
		templateFile   sql.NullString
		priority       sql.NullInt64
		currentStage   int64
		statusStr      string
		overrideReason sql.NullString
		errorMessage   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&batchID,
		&title,
		&designFile,
		&templateFile,
		&priority,
		&currentStage,
		&statusStr,
		&overrideReason,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:             id,
		BatchID:        batchID,
		Title:          title.String,
		DesignFile:     designFile.String,
		TemplateFile:   templateFile.String,
		Priority:       int(priority.Int64),
		CurrentStage:   Stage(currentStage),
		Status:         Status(statusStr),
		OverrideReason: overrideReason.String,
		ErrorMessage:   errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
