// Package daemon hosts the long-running slated process: it enforces
// single-instance execution with a lock file, resumes interrupted
// preprocessing on startup, and serves the HTTP API the CLI talks to.
package daemon
