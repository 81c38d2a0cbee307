package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for job identifiers.
	FieldJobID = "job_id"
	// FieldBatchID is the standardized structured logging key for batch identifiers.
	FieldBatchID = "batch_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldActor is the standardized structured logging key for the initiator of a transition.
	FieldActor = "actor"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log records with a machine-friendly event name.
	FieldEventType = "event_type"
	// FieldErrorKind carries the services error classification of a failure.
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests a next step when a failure is logged.
	FieldErrorHint = "error_hint"
)
