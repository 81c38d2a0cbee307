package jobs

import (
	"strings"
	"time"
)

// Stage identifies one phase of the job lifecycle. Stages 0 through 6 are
// stored in the database; StageComplete is the terminal target of the final
// approval edge and never appears in a job row.
type Stage int

const (
	StageIngested         Stage = 0
	StageExtraction       Stage = 1
	StageMatchReview      Stage = 2
	StageValidation       Stage = 3
	StageValidationReview Stage = 4
	StageScripting        Stage = 5
	StagePreview          Stage = 6
	StageComplete         Stage = 7
)

var stageNames = map[Stage]string{
	StageIngested:         "ingested",
	StageExtraction:       "extraction",
	StageMatchReview:      "match_review",
	StageValidation:       "validation",
	StageValidationReview: "validation_review",
	StageScripting:        "scripting",
	StagePreview:          "preview",
	StageComplete:         "complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Persisted reports whether the stage can appear in a job row.
func (s Stage) Persisted() bool {
	return s >= StageIngested && s <= StagePreview
}

// ParseStage converts a stage name into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for stage, name := range stageNames {
		if name == normalized {
			return stage, true
		}
	}
	return 0, false
}

// Status represents the lifecycle state of a job within its current stage.
type Status string

const (
	StatusPending                  Status = "pending"
	StatusProcessing               Status = "processing"
	StatusAwaitingReview           Status = "awaiting_review"
	StatusAwaitingValidationReview Status = "awaiting_validation_review"
	StatusAwaitingApproval         Status = "awaiting_approval"
	StatusCompleted                Status = "completed"
	StatusFailed                   Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusAwaitingReview,
	StatusAwaitingValidationReview,
	StatusAwaitingApproval,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Severity classifies a warning. Critical warnings at the validation stage
// force the job through the validation review checkpoint.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ParseSeverity converts a string into a known Severity.
func ParseSeverity(value string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeverityCritical:
		return SeverityCritical, true
	case SeverityWarning:
		return SeverityWarning, true
	case SeverityInfo:
		return SeverityInfo, true
	default:
		return "", false
	}
}

// Job represents a unit of work persisted in SQLite.
type Job struct {
	ID             int64
	BatchID        string
	Title          string
	DesignFile     string
	TemplateFile   string
	Priority       int
	CurrentStage   Stage
	Status         Status
	OverrideReason string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsProcessing returns true when background work is in flight for the job.
func (j Job) IsProcessing() bool {
	return j.Status == StatusProcessing
}

// AuditEntry is one append-only record of an action taken on a job.
type AuditEntry struct {
	ID        int64
	JobID     int64
	Stage     Stage
	Action    string
	Actor     string
	Message   string
	RequestID string
	CreatedAt time.Time
}

// Audit action values. The set is open; these cover the pipeline's own writes.
const (
	ActionStageStarted        = "stage_started"
	ActionStageCompleted      = "stage_completed"
	ActionTransitionRejected  = "transition_rejected"
	ActionPreprocessingFailed = "preprocessing_failed"
	ActionOverrideApplied     = "override_applied"
	ActionJobCompleted        = "job_completed"
)

// SystemActor identifies pipeline-initiated actions in the audit log.
const SystemActor = "system"

// Warning is a non-fatal issue discovered for a job, immutable once recorded.
type Warning struct {
	ID        int64
	JobID     int64
	Stage     Stage
	Severity  Severity
	Category  string
	Message   string
	CreatedAt time.Time
}

// WarningsSummary aggregates warning counts per severity for one job.
type WarningsSummary struct {
	Critical int
	Warning  int
	Info     int
}

// Total returns the summed warning count.
func (s WarningsSummary) Total() int {
	return s.Critical + s.Warning + s.Info
}

// StageResult is the opaque payload a stage processor produced for a job.
// Reprocessing replaces the row, so at most one result exists per job/stage.
type StageResult struct {
	JobID        int64
	Stage        Stage
	Payload      string
	Success      bool
	ErrorMessage string
	UpdatedAt    time.Time
}

// Stats describes aggregated job counts per lifecycle state.
type Stats struct {
	Total                    int
	Pending                  int
	Processing               int
	AwaitingReview           int
	AwaitingValidationReview int
	AwaitingApproval         int
	Completed                int
	Failed                   int
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
