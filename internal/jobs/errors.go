package jobs

import "errors"

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// ErrStageConflict indicates a guarded stage update found the job at a
// different stage than expected. One of two concurrent writers sees this.
var ErrStageConflict = errors.New("job stage changed concurrently")
