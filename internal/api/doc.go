// Package api defines transport-friendly DTOs for pipeline state and the
// read-side services that produce them. The daemon's HTTP server and the CLI
// both consume these types, keeping the wire format in one place.
package api
