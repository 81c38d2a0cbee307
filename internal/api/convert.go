package api

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"slate/internal/jobs"
	"slate/internal/stage"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) JobItem {
	if job == nil {
		return JobItem{}
	}
	dto := JobItem{
		ID:             job.ID,
		BatchID:        job.BatchID,
		Title:          job.Title,
		DesignFile:     job.DesignFile,
		TemplateFile:   job.TemplateFile,
		Priority:       job.Priority,
		Stage:          job.CurrentStage.String(),
		Status:         string(job.Status),
		OverrideReason: job.OverrideReason,
		ErrorMessage:   job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(items []*jobs.Job) []JobItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]JobItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromJob(item))
	}
	return out
}

// FromWarnings converts recorded warnings into API DTOs.
func FromWarnings(warnings []jobs.Warning) []JobWarning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]JobWarning, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, JobWarning{
			Stage:     warning.Stage.String(),
			Severity:  string(warning.Severity),
			Category:  warning.Category,
			Message:   warning.Message,
			CreatedAt: FormatTime(warning.CreatedAt),
		})
	}
	return out
}

// FromAuditEntries converts audit records into API DTOs.
func FromAuditEntries(entries []jobs.AuditEntry) []AuditEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]AuditEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, AuditEntry{
			ID:        entry.ID,
			JobID:     entry.JobID,
			Stage:     entry.Stage.String(),
			Action:    entry.Action,
			Actor:     entry.Actor,
			Message:   entry.Message,
			RequestID: entry.RequestID,
			CreatedAt: FormatTime(entry.CreatedAt),
		})
	}
	return out
}

// FromStageResults converts persisted stage results into a deterministic
// stage-ordered slice.
func FromStageResults(results map[jobs.Stage]*jobs.StageResult) []StageOutcome {
	if len(results) == 0 {
		return nil
	}
	stages := make([]jobs.Stage, 0, len(results))
	for s := range results {
		stages = append(stages, s)
	}
	slices.Sort(stages)

	out := make([]StageOutcome, 0, len(stages))
	for _, s := range stages {
		result := results[s]
		outcome := StageOutcome{
			Stage:        s.String(),
			Success:      result.Success,
			ErrorMessage: result.ErrorMessage,
			UpdatedAt:    FormatTime(result.UpdatedAt),
		}
		if payload := strings.TrimSpace(result.Payload); payload != "" {
			outcome.Payload = json.RawMessage(payload)
		}
		out = append(out, outcome)
	}
	return out
}

// FromCompletions converts completion stamps into a stage-ordered slice.
func FromCompletions(completions map[jobs.Stage]time.Time) []StageCompletion {
	if len(completions) == 0 {
		return nil
	}
	stages := make([]jobs.Stage, 0, len(completions))
	for s := range completions {
		stages = append(stages, s)
	}
	slices.Sort(stages)

	out := make([]StageCompletion, 0, len(stages))
	for _, s := range stages {
		out = append(out, StageCompletion{Stage: s.String(), CompletedAt: FormatTime(completions[s])})
	}
	return out
}

// FromStats produces a string-keyed representation of job stats.
func FromStats(stats jobs.Stats) map[string]int {
	return map[string]int{
		"total":                      stats.Total,
		"pending":                    stats.Pending,
		"processing":                 stats.Processing,
		"awaiting_review":            stats.AwaitingReview,
		"awaiting_validation_review": stats.AwaitingValidationReview,
		"awaiting_approval":          stats.AwaitingApproval,
		"completed":                  stats.Completed,
		"failed":                     stats.Failed,
	}
}

// StageHealthSlice converts processor health checks into a sorted slice.
func StageHealthSlice(checks []stage.Health) []StageHealth {
	if len(checks) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(checks))
	for _, h := range checks {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	slices.SortFunc(out, func(a, b StageHealth) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// FormatTime converts a time to RFC3339 or returns an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
