package pipeline

import (
	"context"
	"fmt"

	"slate/internal/jobs"
	"slate/internal/stage"
)

// PreprocessingStatus reports the lifecycle of background work for a job and
// stage: a live task wins, then the persisted result, else not started.
func (m *Manager) PreprocessingStatus(ctx context.Context, jobID int64, target jobs.Stage) (PreprocessingState, error) {
	if m.coordinator.Live(jobID, target) {
		return PreprocessingInProgress, nil
	}
	result, err := m.store.ResultFor(ctx, jobID, target)
	if err != nil {
		return "", fmt.Errorf("load stage result: %w", err)
	}
	if result == nil {
		return PreprocessingNotStarted, nil
	}
	if result.Success {
		return PreprocessingCompleted, nil
	}
	return PreprocessingFailed, nil
}

// Health reports the readiness of every registered processor.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(m.processors))
	for _, processor := range m.processors {
		checks = append(checks, processor.HealthCheck(ctx))
	}
	return checks
}

// LiveHandles returns a snapshot of in-flight preprocessing tasks.
func (m *Manager) LiveHandles() []Handle {
	return m.coordinator.Handles()
}
