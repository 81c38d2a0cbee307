package stage

import (
	"context"
	"encoding/json"

	"slate/internal/jobs"
)

// Result is the structured output of one processor run. Artifacts is the
// opaque payload persisted as the stage result; Warnings are recorded in the
// warning registry alongside it.
type Result struct {
	Artifacts json.RawMessage
	Warnings  []jobs.Warning
}

// Processor describes the contract the pipeline needs from each automated
// stage. Process must be safe to invoke again for the same job; a rerun
// replaces the previously persisted result. Processors never touch the job's
// stage or status themselves.
type Processor interface {
	Stage() jobs.Stage
	Process(context.Context, *jobs.Job) (Result, error)
	HealthCheck(context.Context) Health
}
