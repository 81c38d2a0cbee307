package rendering

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slate/internal/jobs"
	"slate/internal/services"
	"slate/internal/stages/scripting"
	"slate/internal/testsupport"
)

type stubResults map[jobs.Stage]*jobs.StageResult

func (s stubResults) ResultFor(_ context.Context, _ int64, stage jobs.Stage) (*jobs.StageResult, error) {
	return s[stage], nil
}

func scriptResult(t *testing.T, scriptPath string) *jobs.StageResult {
	t.Helper()
	payload, err := json.Marshal(scripting.Artifacts{ScriptPath: scriptPath, Assignments: 1})
	if err != nil {
		t.Fatal(err)
	}
	return &jobs.StageResult{Stage: jobs.StageScripting, Payload: string(payload), Success: true}
}

func TestProcessRendersPreview(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer())
	script := filepath.Join(t.TempDir(), "job-1.jsx")
	if err := os.WriteFile(script, []byte("// script"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(cfg, stubResults{jobs.StageScripting: scriptResult(t, script)}, nil)
	result, err := p.Process(context.Background(), &jobs.Job{ID: 1})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	var artifacts Artifacts
	if err := json.Unmarshal(result.Artifacts, &artifacts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(artifacts.PreviewPath); err != nil {
		t.Fatalf("preview not created: %v", err)
	}
}

func TestProcessRendererFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailingRenderer())
	script := filepath.Join(t.TempDir(), "job-2.jsx")
	if err := os.WriteFile(script, []byte("// script"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(cfg, stubResults{jobs.StageScripting: scriptResult(t, script)}, nil)
	_, err := p.Process(context.Background(), &jobs.Job{ID: 2})
	if err == nil {
		t.Fatal("expected renderer failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want external tool marker", err)
	}
}

func TestProcessWithoutScriptFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubRenderer())
	p := New(cfg, stubResults{}, nil)
	if _, err := p.Process(context.Background(), &jobs.Job{ID: 3}); err == nil {
		t.Fatal("expected error without scripting result")
	}
}

func TestHealthCheckMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Renderer.Binary = "definitely-not-a-real-renderer"
	p := New(cfg, stubResults{}, nil)
	if health := p.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy for missing binary")
	}

	cfg2 := testsupport.NewConfig(t, testsupport.WithStubRenderer())
	p2 := New(cfg2, stubResults{}, nil)
	if health := p2.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}
}
