// Package jobs persists pipeline jobs and their history in SQLite.
//
// The store owns four durable surfaces: the job row itself (current stage,
// status, override reason), per-stage completion timestamps, per-stage
// processor results, and the append-only audit log plus warning registry.
// Stage and status changes go through single-row transactions so concurrent
// writers for the same job resolve to exactly one winner.
package jobs
