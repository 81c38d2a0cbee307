package validation

import (
	"context"
	"encoding/json"
	"testing"

	"slate/internal/assets"
	"slate/internal/jobs"
	"slate/internal/matching"
	"slate/internal/stages/extraction"
	"slate/internal/testsupport"
)

type stubResults map[jobs.Stage]*jobs.StageResult

func (s stubResults) ResultFor(_ context.Context, _ int64, stage jobs.Stage) (*jobs.StageResult, error) {
	return s[stage], nil
}

func extractionResult(t *testing.T, matches ...matching.Match) *jobs.StageResult {
	t.Helper()
	payload, err := json.Marshal(extraction.Artifacts{
		Outcome: matching.Outcome{Matches: matches},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &jobs.StageResult{Stage: jobs.StageExtraction, Payload: string(payload), Success: true}
}

func TestProcessCleanPairProducesNoCriticals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, []assets.Layer{
		{Name: "hero", Kind: assets.KindImage, Width: 1920, Height: 1080},
	})
	template := testsupport.WriteTemplateSidecar(t, dir, []assets.Placeholder{
		{Name: "hero", Kind: assets.KindImage, Width: 1920, Height: 1080, Required: true},
	})

	results := stubResults{jobs.StageExtraction: extractionResult(t, matching.Match{Layer: "hero", Placeholder: "hero", Confidence: 1})}
	p := New(cfg, results, nil)

	result, err := p.Process(context.Background(), &jobs.Job{ID: 1, DesignFile: design, TemplateFile: template})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var report Report
	if err := json.Unmarshal(result.Artifacts, &report); err != nil {
		t.Fatal(err)
	}
	if report.CriticalCount != 0 {
		t.Fatalf("critical count = %d, issues %+v", report.CriticalCount, report.Issues)
	}
	if report.CheckedPairs != 1 {
		t.Fatalf("checked pairs = %d", report.CheckedPairs)
	}
}

func TestProcessFlagsAspectRatioMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, []assets.Layer{
		{Name: "hero", Kind: assets.KindImage, Width: 1000, Height: 1000},
	})
	template := testsupport.WriteTemplateSidecar(t, dir, []assets.Placeholder{
		{Name: "hero", Kind: assets.KindImage, Width: 1920, Height: 1080, Required: true},
	})

	results := stubResults{jobs.StageExtraction: extractionResult(t, matching.Match{Layer: "hero", Placeholder: "hero", Confidence: 1})}
	p := New(cfg, results, nil)

	result, err := p.Process(context.Background(), &jobs.Job{ID: 1, DesignFile: design, TemplateFile: template})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var report Report
	if err := json.Unmarshal(result.Artifacts, &report); err != nil {
		t.Fatal(err)
	}
	if report.CriticalCount == 0 {
		t.Fatalf("expected critical aspect ratio issue, got %+v", report.Issues)
	}

	foundCritical := false
	for _, warning := range result.Warnings {
		if warning.Severity == jobs.SeverityCritical && warning.Category == "aspect_ratio" {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Fatalf("critical warning not propagated: %+v", result.Warnings)
	}
}

func TestProcessFlagsUnfilledRequiredPlaceholder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, nil)
	template := testsupport.WriteTemplateSidecar(t, dir, []assets.Placeholder{
		{Name: "headline", Kind: assets.KindText, Width: 1200, Height: 200, Required: true},
	})

	payload, err := json.Marshal(extraction.Artifacts{
		Outcome: matching.Outcome{UnmatchedPlaceholders: []string{"headline"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	results := stubResults{jobs.StageExtraction: {Stage: jobs.StageExtraction, Payload: string(payload), Success: true}}

	result, err := New(cfg, results, nil).Process(context.Background(), &jobs.Job{ID: 1, DesignFile: design, TemplateFile: template})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var report Report
	if err := json.Unmarshal(result.Artifacts, &report); err != nil {
		t.Fatal(err)
	}
	if report.CriticalCount != 1 {
		t.Fatalf("critical count = %d, issues %+v", report.CriticalCount, report.Issues)
	}
	if report.Issues[0].Category != "unfilled_placeholder" {
		t.Fatalf("issue = %+v", report.Issues[0])
	}
}

func TestProcessWithoutExtractionResultFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := New(cfg, stubResults{}, nil)
	if _, err := p.Process(context.Background(), &jobs.Job{ID: 1}); err == nil {
		t.Fatal("expected error without extraction result")
	}
}
