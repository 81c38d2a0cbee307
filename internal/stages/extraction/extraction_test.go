package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"slate/internal/assets"
	"slate/internal/jobs"
	"slate/internal/services"
	"slate/internal/testsupport"
)

func TestProcessMatchesLayersToPlaceholders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, []assets.Layer{
		{Name: "headline", Kind: assets.KindText, Width: 1200, Height: 200, Text: "Spring Sale"},
		{Name: "hero", Kind: assets.KindImage, Width: 1920, Height: 1080},
	})
	template := testsupport.WriteTemplateSidecar(t, dir, []assets.Placeholder{
		{Name: "headline", Kind: assets.KindText, Width: 1200, Height: 200, Required: true},
		{Name: "hero", Kind: assets.KindImage, Width: 1920, Height: 1080, Required: true},
	})

	p := New(cfg, nil)
	result, err := p.Process(context.Background(), &jobs.Job{ID: 1, DesignFile: design, TemplateFile: template})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var artifacts Artifacts
	if err := json.Unmarshal(result.Artifacts, &artifacts); err != nil {
		t.Fatalf("unmarshal artifacts: %v", err)
	}
	if len(artifacts.Outcome.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(artifacts.Outcome.Matches))
	}
	if artifacts.LayerCount != 2 || artifacts.PlaceholderCount != 2 {
		t.Fatalf("counts = %d/%d", artifacts.LayerCount, artifacts.PlaceholderCount)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}
}

func TestProcessWarnsOnUnmatchedRequiredPlaceholder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, []assets.Layer{
		{Name: "background texture", Kind: assets.KindImage, Width: 100, Height: 100},
	})
	template := testsupport.WriteTemplateSidecar(t, dir, []assets.Placeholder{
		{Name: "headline", Kind: assets.KindText, Width: 1200, Height: 200, Required: true},
	})

	p := New(cfg, nil)
	result, err := p.Process(context.Background(), &jobs.Job{ID: 1, DesignFile: design, TemplateFile: template})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	found := false
	for _, warning := range result.Warnings {
		if warning.Category == "unmatched_placeholder" && warning.Severity == jobs.SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Fatalf("no required-placeholder warning in %+v", result.Warnings)
	}
}

func TestProcessMissingSidecarFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := New(cfg, nil)
	_, err := p.Process(context.Background(), &jobs.Job{
		ID:           1,
		DesignFile:   filepath.Join(t.TempDir(), "absent.psd"),
		TemplateFile: filepath.Join(t.TempDir(), "absent.aepx"),
	})
	if err == nil {
		t.Fatal("expected error for missing sidecar")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestHealthCheckAlwaysReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	health := New(cfg, nil).HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("health = %+v", health)
	}
}
