package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/services"
)

// TransitionRequest asks the manager to move a job to a target stage.
type TransitionRequest struct {
	JobID          int64
	TargetStage    jobs.Stage
	Actor          string
	OverrideReason string
}

// Transition validates the request against the transition table and, on
// success, persists the stage change atomically with its audit entry. The
// caller gets a response before any preprocessing for the new stage runs.
func (m *Manager) Transition(ctx context.Context, req TransitionRequest) (*jobs.Job, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, m.logger).With(
		logging.Int64(logging.FieldJobID, req.JobID),
	)

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = jobs.SystemActor
	}

	job, err := m.store.GetByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %d", ErrJobNotFound, req.JobID)
		}
		return nil, err
	}

	edge, legal := findEdge(job.CurrentStage, req.TargetStage)
	if !legal {
		m.auditRejection(ctx, job, req, actor, requestID,
			fmt.Sprintf("transition %s -> %s is not in the table", job.CurrentStage, req.TargetStage))
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, job.CurrentStage, req.TargetStage)
	}

	// System edges belong to the pipeline: it takes them itself once the
	// stage's preprocessing finalizes. A human checkpoint edge waits until
	// any task still running for the current stage has finalized.
	if !edge.Human && actor != jobs.SystemActor {
		m.auditRejection(ctx, job, req, actor, requestID,
			fmt.Sprintf("edge %s -> %s is pipeline-driven", edge.From, edge.To))
		return nil, fmt.Errorf("%w: %s -> %s is pipeline-driven", ErrIllegalTransition, edge.From, edge.To)
	}
	if edge.Human && m.coordinator.Live(job.ID, job.CurrentStage) {
		m.auditRejection(ctx, job, req, actor, requestID,
			fmt.Sprintf("%s preprocessing is still running", job.CurrentStage))
		return nil, fmt.Errorf("%w: %s preprocessing is still running", ErrIllegalTransition, job.CurrentStage)
	}

	overrideReason := strings.TrimSpace(req.OverrideReason)
	if edge.RequiresOverride && overrideReason == "" {
		m.auditRejection(ctx, job, req, actor, requestID, "override requested without a reason")
		return nil, fmt.Errorf("%w: %s -> %s", ErrMissingOverrideReason, edge.From, edge.To)
	}

	rec := jobs.TransitionRecord{
		JobID:     job.ID,
		FromStage: edge.From,
		Actor:     actor,
		RequestID: requestID,
	}

	switch {
	case edge.To == jobs.StageComplete:
		// The terminal edge keeps the row at the preview stage; only the
		// status and completion stamp change.
		rec.ToStage = edge.From
		rec.Status = jobs.StatusCompleted
		rec.CompletedStage = edge.From
		rec.HasCompletion = true
		rec.Action = jobs.ActionJobCompleted
		rec.Message = "final preview approved"
	case edge.Regression:
		rec.ToStage = edge.To
		rec.Status = SpecFor(edge.To).EntryStatus
		rec.Action = jobs.ActionStageStarted
		rec.Message = fmt.Sprintf("returned to %s for rework", edge.To)
	default:
		rec.ToStage = edge.To
		rec.Status = SpecFor(edge.To).EntryStatus
		rec.Action = jobs.ActionStageStarted
		rec.Message = fmt.Sprintf("entered %s", edge.To)
		if edge.From >= jobs.StageExtraction && edge.From <= jobs.StagePreview {
			rec.CompletedStage = edge.From
			rec.HasCompletion = true
		}
		if edge.RequiresOverride {
			rec.OverrideReason = overrideReason
			rec.Action = jobs.ActionOverrideApplied
			rec.Message = fmt.Sprintf("issues overridden: %s", overrideReason)
		}
	}

	updated, err := m.store.ApplyTransition(ctx, rec)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			return nil, fmt.Errorf("%w: job %d", ErrJobNotFound, req.JobID)
		case errors.Is(err, jobs.ErrStageConflict):
			// A concurrent transition won the row; this request loses.
			m.auditRejection(ctx, job, req, actor, requestID, "job stage changed concurrently")
			return nil, fmt.Errorf("%w: %s -> %s superseded by a concurrent transition",
				ErrIllegalTransition, edge.From, edge.To)
		default:
			return nil, err
		}
	}

	logger.Info("transition applied",
		logging.String("from", edge.From.String()),
		logging.String("to", edge.To.String()),
		logging.String(logging.FieldActor, actor),
		logging.String("status", string(updated.Status)),
	)

	if edge.To == jobs.StageComplete {
		m.archiveDeliverables(ctx, updated, logger)
		if err := m.notifier.NotifyJobCompleted(ctx, updated.ID, updated.Title); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
		return updated, nil
	}

	if SpecFor(updated.CurrentStage).HasPreprocessing {
		m.launchPreprocessing(updated, requestID)
	}
	return updated, nil
}

func (m *Manager) auditRejection(ctx context.Context, job *jobs.Job, req TransitionRequest, actor, requestID, reason string) {
	err := m.store.AppendAudit(ctx, jobs.AuditEntry{
		JobID:     job.ID,
		Stage:     job.CurrentStage,
		Action:    jobs.ActionTransitionRejected,
		Actor:     actor,
		Message:   fmt.Sprintf("requested %s: %s", req.TargetStage, reason),
		RequestID: requestID,
	})
	if err != nil {
		m.logger.Warn("audit rejection write failed",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}
