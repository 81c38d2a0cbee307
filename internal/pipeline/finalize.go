package pipeline

import (
	"context"
	"errors"
	"fmt"

	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/stage"
)

func (m *Manager) launchPreprocessing(job *jobs.Job, requestID string) {
	target := job.CurrentStage
	processor, registered := m.processors[target]
	if !registered {
		// A stage flagged for preprocessing without a processor must still
		// not strand the job; finalize it as a failure immediately.
		m.finalize(context.Background(), job, target, requestID, stage.Result{},
			fmt.Errorf("no processor registered for stage %s", target))
		return
	}

	started := m.coordinator.Launch(job, processor, func(ctx context.Context, job *jobs.Job, result stage.Result, err error) {
		m.finalize(ctx, job, target, requestID, result, err)
	})
	if !started {
		m.logger.Debug("duplicate preprocessing absorbed",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String(logging.FieldStage, target.String()),
		)
	}
}

// finalize persists a processor outcome and advances the job per the stage
// spec. Failures degrade: the job still reaches a reviewable status, with a
// critical warning describing what went wrong.
func (m *Manager) finalize(ctx context.Context, job *jobs.Job, processed jobs.Stage, requestID string, result stage.Result, procErr error) {
	logger := m.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, processed.String()),
	)
	spec := SpecFor(processed)

	warnings := result.Warnings
	action := jobs.ActionStageCompleted
	message := fmt.Sprintf("%s preprocessing finished", processed)
	errorMessage := ""
	if procErr != nil {
		warnings = append(warnings, jobs.Warning{
			Severity: jobs.SeverityCritical,
			Category: "preprocessing",
			Message:  fmt.Sprintf("%s preprocessing failed: %v", processed, procErr),
		})
		action = jobs.ActionPreprocessingFailed
		message = fmt.Sprintf("%s preprocessing failed: %v", processed, procErr)
		errorMessage = procErr.Error()
	}

	critical := procErr != nil
	for _, warning := range warnings {
		if warning.Severity == jobs.SeverityCritical {
			critical = true
		}
	}

	outcome := jobs.StageOutcome{
		JobID:        job.ID,
		Stage:        processed,
		Status:       spec.DoneStatus,
		Payload:      string(result.Artifacts),
		Success:      procErr == nil,
		ErrorMessage: errorMessage,
		Warnings:     warnings,
		Actor:        jobs.SystemActor,
		Action:       action,
		Message:      message,
		RequestID:    requestID,
	}
	if err := m.store.FinalizeStage(ctx, outcome); err != nil {
		if errors.Is(err, jobs.ErrStageConflict) {
			logger.Warn("stage outcome superseded by a concurrent transition, discarded")
			return
		}
		logger.Error("persist stage outcome failed", logging.Error(err))
		return
	}

	if procErr != nil {
		logger.Warn("preprocessing failed, degrading to reviewable state", logging.Error(procErr))
		if err := m.notifier.NotifyPreprocessingFailed(ctx, job.ID, processed.String(), procErr.Error()); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	} else {
		logger.Info("preprocessing finished",
			logging.Int("warnings", len(warnings)),
			logging.Bool("critical", critical),
		)
	}

	target := spec.AdvanceTo
	if critical && spec.CriticalTo != 0 {
		target = spec.CriticalTo
	}
	if target == 0 {
		if processed == jobs.StagePreview {
			if err := m.notifier.NotifyApprovalReady(ctx, job.ID, job.Title); err != nil {
				logger.Warn("approval notification failed", logging.Error(err))
			}
		}
		return
	}

	updated, err := m.Transition(ctx, TransitionRequest{
		JobID:       job.ID,
		TargetStage: target,
		Actor:       jobs.SystemActor,
	})
	if err != nil {
		logger.Warn("automatic advance failed", logging.Error(err))
		return
	}

	switch updated.CurrentStage {
	case jobs.StageMatchReview:
		if err := m.notifier.NotifyReviewReady(ctx, updated.ID, updated.Title); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	case jobs.StageValidationReview:
		count, err := m.store.CriticalCount(ctx, updated.ID, jobs.StageValidation)
		if err != nil {
			count = 0
		}
		if err := m.notifier.NotifyValidationReview(ctx, updated.ID, updated.Title, count); err != nil {
			logger.Warn("validation notification failed", logging.Error(err))
		}
	}
}
