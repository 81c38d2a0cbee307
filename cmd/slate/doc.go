// Command slate is the operator CLI for the slate pipeline daemon. It talks
// to slated over its HTTP API: ingesting batches, reviewing and approving
// jobs, and inspecting pipeline state.
package main
