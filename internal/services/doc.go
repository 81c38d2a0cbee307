// Package services holds the shared error taxonomy and context plumbing used
// by stage processors and the pipeline manager.
//
// Stage processors tag failures with the sentinel markers below so the
// coordinator can classify them when degrading a job to its ready-with-warnings
// state. Context helpers carry job, stage, and request identifiers into
// structured logs.
package services
