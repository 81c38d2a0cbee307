package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"slate/internal/archive"
	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/stage"
)

// Manager owns all stage and status changes for jobs. Construct one at
// startup and share it; it carries no global state.
type Manager struct {
	cfg         *config.Config
	store       *jobs.Store
	logger      *slog.Logger
	notifier    notifications.Service
	coordinator *Coordinator
	processors  map[jobs.Stage]stage.Processor
	archiver    *archive.Archiver
}

// NewManager wires the transition manager with its stage processors.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger, notifier notifications.Service, processors ...stage.Processor) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	registry := make(map[jobs.Stage]stage.Processor, len(processors))
	for _, processor := range processors {
		registry[processor.Stage()] = processor
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		notifier: notifier,
		coordinator: NewCoordinator(
			cfg.Pipeline.MaxConcurrentPreprocess,
			time.Duration(cfg.Pipeline.PreprocessTimeoutSeconds)*time.Second,
		),
		processors: registry,
		archiver:   archive.New(cfg, logger),
	}
}

// Store exposes the underlying job store for read surfaces.
func (m *Manager) Store() *jobs.Store {
	return m.store
}

// IngestBatch creates one job per item under a fresh batch id and starts
// extraction preprocessing for each.
func (m *Manager) IngestBatch(ctx context.Context, items []jobs.NewJobParams) (string, []*jobs.Job, error) {
	if len(items) == 0 {
		return "", nil, fmt.Errorf("batch is empty")
	}
	batchID := uuid.NewString()

	created := make([]*jobs.Job, 0, len(items))
	for _, params := range items {
		params.BatchID = batchID
		job, err := m.store.CreateJob(ctx, params)
		if err != nil {
			return batchID, created, fmt.Errorf("create job: %w", err)
		}
		created = append(created, job)
	}

	m.logger.Info("batch ingested",
		logging.String(logging.FieldBatchID, batchID),
		logging.Int("jobs", len(created)),
	)

	for i, job := range created {
		advanced, err := m.Transition(ctx, TransitionRequest{
			JobID:       job.ID,
			TargetStage: jobs.StageExtraction,
			Actor:       jobs.SystemActor,
		})
		if err != nil {
			return batchID, created, fmt.Errorf("start extraction for job %d: %w", job.ID, err)
		}
		created[i] = advanced
	}
	return batchID, created, nil
}

// Resume relaunches preprocessing for jobs left in processing status by a
// previous run, so a restart never strands a job mid-stage.
func (m *Manager) Resume(ctx context.Context) error {
	stuck, err := m.store.List(ctx, jobs.StatusProcessing)
	if err != nil {
		return fmt.Errorf("list processing jobs: %w", err)
	}
	for _, job := range stuck {
		if !SpecFor(job.CurrentStage).HasPreprocessing {
			m.logger.Warn("processing job at stage without preprocessing",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.String(logging.FieldStage, job.CurrentStage.String()),
			)
			continue
		}
		m.logger.Info("resuming preprocessing",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String(logging.FieldStage, job.CurrentStage.String()),
		)
		m.launchPreprocessing(job, uuid.NewString())
	}
	return nil
}

// Stop waits for in-flight preprocessing tasks to finalize.
func (m *Manager) Stop() {
	m.coordinator.Wait()
}
