// Package validation implements the automatic validation stage. It checks
// the approved matches for dimensional problems and missing requirements,
// producing a report whose critical findings route the job through the
// validation review checkpoint.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"slate/internal/assets"
	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/services"
	"slate/internal/stage"
	"slate/internal/stages/extraction"
)

// Issue is one validation finding.
type Issue struct {
	Severity    jobs.Severity `json:"severity"`
	Category    string        `json:"category"`
	Layer       string        `json:"layer,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Message     string        `json:"message"`
}

// Report is the persisted payload of one validation run.
type Report struct {
	Issues        []Issue `json:"issues"`
	CheckedPairs  int     `json:"checked_pairs"`
	CriticalCount int     `json:"critical_count"`
}

// ResultSource supplies prior stage results. *jobs.Store satisfies it.
type ResultSource interface {
	ResultFor(ctx context.Context, jobID int64, stage jobs.Stage) (*jobs.StageResult, error)
}

// Processor runs automatic validation for one job.
type Processor struct {
	cfg     *config.Config
	logger  *slog.Logger
	results ResultSource
}

// New creates the validation stage processor.
func New(cfg *config.Config, results ResultSource, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "validation"),
		results: results,
	}
}

func (p *Processor) Stage() jobs.Stage {
	return jobs.StageValidation
}

func (p *Processor) Process(ctx context.Context, job *jobs.Job) (stage.Result, error) {
	prior, err := p.results.ResultFor(ctx, job.ID, jobs.StageExtraction)
	if err != nil {
		return stage.Result{}, err
	}
	if prior == nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "validation", "load matches",
			"No extraction result found; the job cannot be validated", nil)
	}

	var artifacts extraction.Artifacts
	if err := json.Unmarshal([]byte(prior.Payload), &artifacts); err != nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "validation", "parse matches",
			"Extraction result is not readable; rerun extraction", err)
	}

	layers, err := assets.LoadLayers(job.DesignFile)
	if err != nil {
		return stage.Result{}, err
	}
	placeholders, err := assets.LoadPlaceholders(job.TemplateFile)
	if err != nil {
		return stage.Result{}, err
	}

	report := p.buildReport(artifacts, layers, placeholders)
	p.logger.Info("validation finished",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int("issues", len(report.Issues)),
		logging.Int("critical", report.CriticalCount),
	)

	payload, err := json.Marshal(report)
	if err != nil {
		return stage.Result{}, fmt.Errorf("marshal validation report: %w", err)
	}

	return stage.Result{Artifacts: payload, Warnings: issueWarnings(report.Issues)}, nil
}

func (p *Processor) buildReport(artifacts extraction.Artifacts, layers []assets.Layer, placeholders []assets.Placeholder) Report {
	layerByName := make(map[string]assets.Layer, len(layers))
	for _, layer := range layers {
		layerByName[layer.Name] = layer
	}
	placeholderByName := make(map[string]assets.Placeholder, len(placeholders))
	for _, placeholder := range placeholders {
		placeholderByName[placeholder.Name] = placeholder
	}

	var report Report
	for _, match := range artifacts.Outcome.Matches {
		layer, okLayer := layerByName[match.Layer]
		placeholder, okPlaceholder := placeholderByName[match.Placeholder]
		if !okLayer || !okPlaceholder {
			report.Issues = append(report.Issues, Issue{
				Severity:    jobs.SeverityCritical,
				Category:    "missing_asset",
				Layer:       match.Layer,
				Placeholder: match.Placeholder,
				Message:     "matched pair references an asset the sidecars no longer contain",
			})
			continue
		}
		report.CheckedPairs++
		report.Issues = append(report.Issues, p.checkPair(layer, placeholder)...)
	}

	for _, name := range artifacts.Outcome.UnmatchedPlaceholders {
		if placeholder, ok := placeholderByName[name]; ok && placeholder.Required {
			report.Issues = append(report.Issues, Issue{
				Severity:    jobs.SeverityCritical,
				Category:    "unfilled_placeholder",
				Placeholder: name,
				Message:     fmt.Sprintf("required placeholder %q has no matched layer", name),
			})
		}
	}

	for _, issue := range report.Issues {
		if issue.Severity == jobs.SeverityCritical {
			report.CriticalCount++
		}
	}
	return report
}

func (p *Processor) checkPair(layer assets.Layer, placeholder assets.Placeholder) []Issue {
	var issues []Issue
	if layer.Width <= 0 || layer.Height <= 0 || placeholder.Width <= 0 || placeholder.Height <= 0 {
		return issues
	}

	layerRatio := float64(layer.Width) / float64(layer.Height)
	placeholderRatio := float64(placeholder.Width) / float64(placeholder.Height)
	relative := (layerRatio - placeholderRatio) / placeholderRatio
	if relative < 0 {
		relative = -relative
	}
	if relative > p.cfg.Validation.AspectRatioTolerance {
		issues = append(issues, Issue{
			Severity:    jobs.SeverityCritical,
			Category:    "aspect_ratio",
			Layer:       layer.Name,
			Placeholder: placeholder.Name,
			Message: fmt.Sprintf("layer %q aspect ratio %.3f differs from placeholder %q ratio %.3f beyond tolerance",
				layer.Name, layerRatio, placeholder.Name, placeholderRatio),
		})
	}

	widthRatio := float64(layer.Width) / float64(placeholder.Width)
	heightRatio := float64(layer.Height) / float64(placeholder.Height)
	minRatio := widthRatio
	if heightRatio < minRatio {
		minRatio = heightRatio
	}
	if minRatio < p.cfg.Validation.MinResolutionRatio {
		issues = append(issues, Issue{
			Severity:    jobs.SeverityCritical,
			Category:    "resolution",
			Layer:       layer.Name,
			Placeholder: placeholder.Name,
			Message: fmt.Sprintf("layer %q is %dx%d, below %.0f%% of placeholder %q at %dx%d",
				layer.Name, layer.Width, layer.Height,
				p.cfg.Validation.MinResolutionRatio*100,
				placeholder.Name, placeholder.Width, placeholder.Height),
		})
	} else if minRatio < 1 {
		issues = append(issues, Issue{
			Severity:    jobs.SeverityWarning,
			Category:    "resolution",
			Layer:       layer.Name,
			Placeholder: placeholder.Name,
			Message:     fmt.Sprintf("layer %q will be upscaled to fill placeholder %q", layer.Name, placeholder.Name),
		})
	}
	return issues
}

func issueWarnings(issues []Issue) []jobs.Warning {
	warnings := make([]jobs.Warning, 0, len(issues))
	for _, issue := range issues {
		warnings = append(warnings, jobs.Warning{
			Severity: issue.Severity,
			Category: issue.Category,
			Message:  issue.Message,
		})
	}
	return warnings
}

func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("validation")
}
