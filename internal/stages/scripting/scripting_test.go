package scripting

import (
	"context"
	"encoding/json"
	"os"
	"strings"
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

func TestProcessGeneratesScript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, []assets.Layer{
		{Name: "headline", Kind: assets.KindText, Text: "Spring Sale"},
		{Name: "hero", Kind: assets.KindImage, AssetPath: "/assets/hero.png"},
	})

	payload, err := json.Marshal(extraction.Artifacts{
		Outcome: matching.Outcome{Matches: []matching.Match{
			{Layer: "headline", Placeholder: "headline", Confidence: 1},
			{Layer: "hero", Placeholder: "hero", Confidence: 1},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	results := stubResults{jobs.StageExtraction: {Stage: jobs.StageExtraction, Payload: string(payload), Success: true}}

	p := New(cfg, results, nil)
	result, err := p.Process(context.Background(), &jobs.Job{
		ID:           7,
		Title:        "spring promo",
		DesignFile:   design,
		TemplateFile: "/templates/promo.aepx",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var artifacts Artifacts
	if err := json.Unmarshal(result.Artifacts, &artifacts); err != nil {
		t.Fatal(err)
	}
	if artifacts.Assignments != 2 {
		t.Fatalf("assignments = %d, want 2", artifacts.Assignments)
	}

	content, err := os.ReadFile(artifacts.ScriptPath)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	script := string(content)
	if !strings.Contains(script, `setPlaceholderText(project, "headline", "Spring Sale")`) {
		t.Fatalf("text assignment missing:\n%s", script)
	}
	if !strings.Contains(script, `replacePlaceholderFootage(project, "hero", new File("/assets/hero.png"))`) {
		t.Fatalf("footage assignment missing:\n%s", script)
	}
	if !strings.Contains(script, `"/templates/promo.aepx"`) {
		t.Fatalf("template path missing:\n%s", script)
	}
}

func TestProcessWarnsOnMissingLayer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	design := testsupport.WriteDesignSidecar(t, dir, nil)

	payload, err := json.Marshal(extraction.Artifacts{
		Outcome: matching.Outcome{Matches: []matching.Match{
			{Layer: "ghost", Placeholder: "headline", Confidence: 1},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	results := stubResults{jobs.StageExtraction: {Stage: jobs.StageExtraction, Payload: string(payload), Success: true}}

	result, err := New(cfg, results, nil).Process(context.Background(), &jobs.Job{ID: 8, DesignFile: design})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Category != "missing_asset" {
		t.Fatalf("warnings = %+v", result.Warnings)
	}
}

func TestProcessWithoutMatchesFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := New(cfg, stubResults{}, nil)
	if _, err := p.Process(context.Background(), &jobs.Job{ID: 9}); err == nil {
		t.Fatal("expected error without extraction result")
	}
}

func TestHealthCheckNeedsScriptsDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := New(cfg, stubResults{}, nil)
	if health := p.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}

	cfg.Paths.ScriptsDir = ""
	if health := p.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy with empty scripts dir")
	}
}
