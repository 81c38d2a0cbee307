package pipeline

import "errors"

// Validation errors returned synchronously from Transition. Preprocessing
// failures never surface here; they become warnings on the job.
var (
	ErrJobNotFound           = errors.New("job not found")
	ErrIllegalTransition     = errors.New("illegal stage transition")
	ErrMissingOverrideReason = errors.New("override reason is required")
)
