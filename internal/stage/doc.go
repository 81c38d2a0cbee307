// Package stage defines the contract between the pipeline and the
// per-stage processors that prepare a stage's artifacts.
package stage
