// Package scripting implements the script generation stage. It renders an
// ExtendScript automation file that fills template placeholders with the
// approved layer content, written under the configured scripts directory.
package scripting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"slate/internal/assets"
	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
	"slate/internal/services"
	"slate/internal/stage"
	"slate/internal/stages/extraction"
)

// Artifacts is the persisted payload of one scripting run.
type Artifacts struct {
	ScriptPath  string `json:"script_path"`
	Assignments int    `json:"assignments"`
}

// ResultSource supplies prior stage results. *jobs.Store satisfies it.
type ResultSource interface {
	ResultFor(ctx context.Context, jobID int64, stage jobs.Stage) (*jobs.StageResult, error)
}

// Processor generates the automation script for one job.
type Processor struct {
	cfg     *config.Config
	logger  *slog.Logger
	results ResultSource
	tmpl    *template.Template
}

type scriptAssignment struct {
	Placeholder string
	Kind        string
	Text        string
	AssetPath   string
}

type scriptData struct {
	JobID        int64
	Title        string
	TemplateFile string
	Assignments  []scriptAssignment
}

const scriptTemplate = `// Generated automation script, job {{.JobID}} ({{.Title}})
var project = app.open(new File({{printf "%q" .TemplateFile}}));
{{range .Assignments}}{{if eq .Kind "text"}}setPlaceholderText(project, {{printf "%q" .Placeholder}}, {{printf "%q" .Text}});
{{else}}replacePlaceholderFootage(project, {{printf "%q" .Placeholder}}, new File({{printf "%q" .AssetPath}}));
{{end}}{{end}}project.save();
`

// New creates the scripting stage processor.
func New(cfg *config.Config, results ResultSource, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "scripting"),
		results: results,
		tmpl:    template.Must(template.New("script").Parse(scriptTemplate)),
	}
}

func (p *Processor) Stage() jobs.Stage {
	return jobs.StageScripting
}

func (p *Processor) Process(ctx context.Context, job *jobs.Job) (stage.Result, error) {
	prior, err := p.results.ResultFor(ctx, job.ID, jobs.StageExtraction)
	if err != nil {
		return stage.Result{}, err
	}
	if prior == nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "scripting", "load matches",
			"No approved matches found; the job cannot generate a script", nil)
	}

	var matches extraction.Artifacts
	if err := json.Unmarshal([]byte(prior.Payload), &matches); err != nil {
		return stage.Result{}, services.Wrap(
			services.ErrValidation, "scripting", "parse matches",
			"Extraction result is not readable; rerun extraction", err)
	}

	layers, err := assets.LoadLayers(job.DesignFile)
	if err != nil {
		return stage.Result{}, err
	}
	layerByName := make(map[string]assets.Layer, len(layers))
	for _, layer := range layers {
		layerByName[layer.Name] = layer
	}

	var (
		data     = scriptData{JobID: job.ID, Title: job.Title, TemplateFile: job.TemplateFile}
		warnings []jobs.Warning
	)
	for _, match := range matches.Outcome.Matches {
		layer, ok := layerByName[match.Layer]
		if !ok {
			warnings = append(warnings, jobs.Warning{
				Severity: jobs.SeverityWarning,
				Category: "missing_asset",
				Message:  fmt.Sprintf("layer %q disappeared from the sidecar; placeholder %q left unfilled", match.Layer, match.Placeholder),
			})
			continue
		}
		data.Assignments = append(data.Assignments, scriptAssignment{
			Placeholder: match.Placeholder,
			Kind:        layer.Kind,
			Text:        layer.Text,
			AssetPath:   layer.AssetPath,
		})
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return stage.Result{}, fmt.Errorf("render script template: %w", err)
	}

	scriptPath := filepath.Join(p.cfg.Paths.ScriptsDir, fmt.Sprintf("job-%d.jsx", job.ID))
	if err := os.MkdirAll(p.cfg.Paths.ScriptsDir, 0o755); err != nil {
		return stage.Result{}, fmt.Errorf("ensure scripts directory: %w", err)
	}
	if err := os.WriteFile(scriptPath, buf.Bytes(), 0o644); err != nil {
		return stage.Result{}, fmt.Errorf("write script: %w", err)
	}

	p.logger.Info("script generated",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("script", scriptPath),
		logging.Int("assignments", len(data.Assignments)),
	)

	payload, err := json.Marshal(Artifacts{ScriptPath: scriptPath, Assignments: len(data.Assignments)})
	if err != nil {
		return stage.Result{}, fmt.Errorf("marshal scripting artifacts: %w", err)
	}
	return stage.Result{Artifacts: payload, Warnings: warnings}, nil
}

func (p *Processor) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg.Paths.ScriptsDir == "" {
		return stage.Unhealthy("scripting", "scripts directory not configured")
	}
	return stage.Healthy("scripting")
}
