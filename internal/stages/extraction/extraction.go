// Package extraction implements the automated extraction and auto-match
// stage. It loads the layer and placeholder sidecars for a job and pairs
// them with the content matcher, producing the match outcome the review
// stage presents to a human.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"slate/internal/assets"
	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/matching"
	"slate/internal/stage"
)

// Artifacts is the persisted payload of one extraction run.
type Artifacts struct {
	Outcome          matching.Outcome `json:"outcome"`
	LayerCount       int              `json:"layer_count"`
	PlaceholderCount int              `json:"placeholder_count"`
}

// Processor runs extraction and auto-matching for one job.
type Processor struct {
	logger  *slog.Logger
	matcher *matching.Matcher
}

// New creates the extraction stage processor.
func New(cfg *config.Config, logger *slog.Logger) *Processor {
	return &Processor{
		logger:  logging.NewComponentLogger(logger, "extraction"),
		matcher: matching.New(cfg.Matching.ConfidenceThreshold, cfg.Matching.LowConfidenceFloor),
	}
}

func (p *Processor) Stage() jobs.Stage {
	return jobs.StageExtraction
}

func (p *Processor) Process(ctx context.Context, job *jobs.Job) (stage.Result, error) {
	layers, err := assets.LoadLayers(job.DesignFile)
	if err != nil {
		return stage.Result{}, err
	}
	placeholders, err := assets.LoadPlaceholders(job.TemplateFile)
	if err != nil {
		return stage.Result{}, err
	}

	outcome := p.matcher.Match(layers, placeholders)
	p.logger.Info("auto-match finished",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int("matches", len(outcome.Matches)),
		logging.Int("unmatched_layers", len(outcome.UnmatchedLayers)),
		logging.Int("unmatched_placeholders", len(outcome.UnmatchedPlaceholders)),
	)

	warnings := matchWarnings(outcome, placeholders)

	payload, err := json.Marshal(Artifacts{
		Outcome:          outcome,
		LayerCount:       len(layers),
		PlaceholderCount: len(placeholders),
	})
	if err != nil {
		return stage.Result{}, fmt.Errorf("marshal extraction artifacts: %w", err)
	}

	return stage.Result{Artifacts: payload, Warnings: warnings}, nil
}

func matchWarnings(outcome matching.Outcome, placeholders []assets.Placeholder) []jobs.Warning {
	required := make(map[string]bool, len(placeholders))
	for _, placeholder := range placeholders {
		required[placeholder.Name] = placeholder.Required
	}

	var warnings []jobs.Warning
	for _, name := range outcome.UnmatchedPlaceholders {
		severity := jobs.SeverityInfo
		if required[name] {
			severity = jobs.SeverityWarning
		}
		warnings = append(warnings, jobs.Warning{
			Severity: severity,
			Category: "unmatched_placeholder",
			Message:  fmt.Sprintf("no layer matched placeholder %q", name),
		})
	}
	for _, match := range outcome.Matches {
		if match.LowConfidence {
			warnings = append(warnings, jobs.Warning{
				Severity: jobs.SeverityWarning,
				Category: "low_confidence",
				Message:  fmt.Sprintf("match %q -> %q scored %.2f; verify before approving", match.Layer, match.Placeholder, match.Confidence),
			})
		}
	}
	for _, name := range outcome.UnmatchedLayers {
		warnings = append(warnings, jobs.Warning{
			Severity: jobs.SeverityInfo,
			Category: "unmatched_layer",
			Message:  fmt.Sprintf("layer %q has no placeholder and will be ignored", name),
		})
	}
	return warnings
}

func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("extraction")
}
