package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobItem describes a pipeline job in a transport-friendly format.
type JobItem struct {
	ID             int64  `json:"id"`
	BatchID        string `json:"batchId,omitempty"`
	Title          string `json:"title"`
	DesignFile     string `json:"designFile"`
	TemplateFile   string `json:"templateFile"`
	Priority       int    `json:"priority"`
	Stage          string `json:"stage"`
	Status         string `json:"status"`
	OverrideReason string `json:"overrideReason,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// JobWarning describes one recorded warning for a job.
type JobWarning struct {
	Stage     string `json:"stage"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WarningCounts aggregates warning totals per severity.
type WarningCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Total returns the summed warning count.
func (c WarningCounts) Total() int {
	return c.Critical + c.Warning + c.Info
}

// StageOutcome describes the persisted output of one preprocessing stage.
type StageOutcome struct {
	Stage        string          `json:"stage"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
}

// StageCompletion records when a job finished a stage.
type StageCompletion struct {
	Stage       string `json:"stage"`
	CompletedAt string `json:"completedAt"`
}

// AuditEntry is one audit log record in API form.
type AuditEntry struct {
	ID        int64  `json:"id"`
	JobID     int64  `json:"jobId"`
	Stage     string `json:"stage"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// StageHealth mirrors readiness reporting for stage processors.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// TaskHandle describes an in-flight preprocessing task.
type TaskHandle struct {
	JobID     int64  `json:"jobId"`
	Stage     string `json:"stage"`
	StartedAt string `json:"startedAt"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	JobStats    map[string]int `json:"jobStats"`
	StageHealth []StageHealth  `json:"stageHealth"`
	LiveTasks   []TaskHandle   `json:"liveTasks,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobDBPath    string         `json:"jobDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Pipeline     PipelineStatus `json:"pipeline"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobItem `json:"jobs"`
}

// JobDetailResponse wraps one job with its results, warnings, and timeline.
type JobDetailResponse struct {
	Job         JobItem           `json:"job"`
	Results     []StageOutcome    `json:"results,omitempty"`
	Warnings    []JobWarning      `json:"warnings,omitempty"`
	Counts      WarningCounts     `json:"warningCounts"`
	Completions []StageCompletion `json:"completions,omitempty"`
}

// AuditResponse wraps a job's audit trail.
type AuditResponse struct {
	Entries []AuditEntry `json:"entries"`
}

// PreprocessingResponse reports the lifecycle of background work for one
// job and stage.
type PreprocessingResponse struct {
	JobID int64  `json:"jobId"`
	Stage string `json:"stage"`
	State string `json:"state"`
}

// TransitionRequest asks the pipeline to move a job to a target stage.
type TransitionRequest struct {
	TargetStage    string `json:"targetStage"`
	Actor          string `json:"actor"`
	OverrideReason string `json:"overrideReason,omitempty"`
}

// TransitionResponse returns the job after a successful transition.
type TransitionResponse struct {
	Job JobItem `json:"job"`
}

// IngestItem is one job submitted as part of a batch.
type IngestItem struct {
	Title        string `json:"title"`
	DesignFile   string `json:"designFile"`
	TemplateFile string `json:"templateFile"`
	Priority     int    `json:"priority,omitempty"`
}

// IngestRequest submits a batch of jobs for processing.
type IngestRequest struct {
	Items []IngestItem `json:"items"`
}

// IngestResponse reports the created batch.
type IngestResponse struct {
	BatchID string    `json:"batchId"`
	Jobs    []JobItem `json:"jobs"`
}

// TestNotificationResponse reports the outcome of a notification test.
type TestNotificationResponse struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail,omitempty"`
}

// StatsResponse provides a normalized job stats payload.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}
