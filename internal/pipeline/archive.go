package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"slate/internal/jobs"
	"slate/internal/logging"
)

// archiveDeliverables copies a completed job's preview render into the
// archive directory. Archiving is best effort: a failure is logged but never
// blocks or reverses the approval.
func (m *Manager) archiveDeliverables(ctx context.Context, job *jobs.Job, logger *slog.Logger) {
	result, err := m.store.ResultFor(ctx, job.ID, jobs.StagePreview)
	if err != nil {
		logger.Warn("load render result for archive failed", logging.Error(err))
		return
	}
	if result == nil || !result.Success {
		logger.Debug("no render result to archive")
		return
	}

	var artifacts struct {
		PreviewPath   string `json:"preview_path"`
		ThumbnailPath string `json:"thumbnail_path"`
	}
	if err := json.Unmarshal([]byte(result.Payload), &artifacts); err != nil {
		logger.Warn("parse render result for archive failed", logging.Error(err))
		return
	}
	if artifacts.PreviewPath == "" {
		logger.Debug("render result has no preview path to archive")
		return
	}

	dir, err := m.archiver.Store(job, artifacts.PreviewPath, artifacts.ThumbnailPath)
	if err != nil {
		logger.Warn("archive deliverables failed", logging.Error(err))
		return
	}
	logger.Info("deliverables archived", logging.String("dir", dir))
}
