// Package logging wraps log/slog with the repository's standard handlers and
// field conventions.
//
// Two handler formats are supported: a compact console handler for interactive
// use and a JSON handler for log files and machine consumption. Standardized
// field keys (component, job_id, stage, event_type, error_hint) keep the output
// greppable across subsystems, and WithContext pulls job/stage/request
// identifiers out of a context so call sites do not repeat them.
package logging
