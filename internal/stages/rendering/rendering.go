// Package rendering implements preview preparation for the approval stage.
// It invokes the external renderer CLI with the generated script and records
// the produced preview video and thumbnail paths.
package rendering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/services"
	"slate/internal/stage"
	"slate/internal/stages/scripting"
)

// Artifacts is the persisted payload of one render run.
type Artifacts struct {
	PreviewPath   string `json:"preview_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// ResultSource supplies prior stage results. *jobs.Store satisfies it.
type ResultSource interface {
	ResultFor(ctx context.Context, jobID int64, stage jobs.Stage) (*jobs.StageResult, error)
}

// Processor renders the preview for one job via the external renderer.
type Processor struct {
	cfg     *config.Config
	logger  *slog.Logger
	results ResultSource
}

// New creates the rendering stage processor.
func New(cfg *config.Config, results ResultSource, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "rendering"),
		results: results,
	}
}

func (p *Processor) Stage() jobs.Stage {
	return jobs.StagePreview
}

func (p *Processor) Process(ctx context.Context, job *jobs.Job) (stage.Result, error) {
	prior, err := p.results.ResultFor(ctx, job.ID, jobs.StageScripting)
	if err != nil {
		return stage.Result{}, err
	}
	if prior == nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "rendering", "load script",
			"No generated script found; the preview cannot be rendered", nil)
	}

	var script scripting.Artifacts
	if err := json.Unmarshal([]byte(prior.Payload), &script); err != nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "rendering", "parse script result",
			"Scripting result is not readable; rerun script generation", err)
	}
	if script.ScriptPath == "" {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "rendering", "load script",
			"Scripting result has no script path; rerun script generation", nil)
	}

	if err := os.MkdirAll(p.cfg.Paths.PreviewDir, 0o755); err != nil {
		return stage.Result{}, fmt.Errorf("ensure preview directory: %w", err)
	}
	previewPath := filepath.Join(p.cfg.Paths.PreviewDir, fmt.Sprintf("job-%d.mp4", job.ID))

	args := make([]string, 0, len(p.cfg.Renderer.ExtraArgs)+4)
	args = append(args, p.cfg.Renderer.ExtraArgs...)
	args = append(args, "-script", script.ScriptPath, "-output", previewPath)

	cmd := exec.CommandContext(ctx, p.cfg.Renderer.Binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.Info("renderer started",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("binary", p.cfg.Renderer.Binary),
		logging.String("script", script.ScriptPath),
	)

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return stage.Result{}, services.Wrap(
			services.ErrExternalTool, "rendering", "run renderer",
			fmt.Sprintf("Renderer exited with an error: %s", detail), err)
	}

	if _, err := os.Stat(previewPath); err != nil {
		return stage.Result{}, services.Wrap(
			services.ErrExternalTool, "rendering", "collect preview",
			"Renderer reported success but produced no preview file", err)
	}

	artifacts := Artifacts{PreviewPath: previewPath}
	thumbnailPath := filepath.Join(p.cfg.Paths.PreviewDir, fmt.Sprintf("job-%d.png", job.ID))
	if _, err := os.Stat(thumbnailPath); err == nil {
		artifacts.ThumbnailPath = thumbnailPath
	}

	payload, err := json.Marshal(artifacts)
	if err != nil {
		return stage.Result{}, fmt.Errorf("marshal render artifacts: %w", err)
	}
	return stage.Result{Artifacts: payload}, nil
}

func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	binary := strings.TrimSpace(p.cfg.Renderer.Binary)
	if binary == "" {
		return stage.Unhealthy("rendering", "renderer binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy("rendering", fmt.Sprintf("renderer binary %q not found in PATH", binary))
	}
	return stage.Healthy("rendering")
}
