package testsupport

import (
	"context"
	"testing"

	"slate/internal/config"
	"slate/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, params jobs.NewJobParams) *jobs.Job {
	t.Helper()

	if params.BatchID == "" {
		params.BatchID = "test-batch"
	}
	job, err := store.CreateJob(context.Background(), params)
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return job
}
