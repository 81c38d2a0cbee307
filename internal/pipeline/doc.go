// Package pipeline is the sole authority for moving jobs between stages.
//
// The transition table in machine.go is the single source of truth for
// legality: human checkpoints, the validation branch, the one permitted
// regression, and the override edge are all rows in that table. The manager
// validates requests against it, persists stage changes atomically through
// the job store, and hands stages with expensive preparation to the
// preprocessing coordinator so callers never block on background work.
package pipeline
