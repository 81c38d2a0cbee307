package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if resolved != missing {
		t.Fatalf("resolved path = %q, want %q", resolved, missing)
	}
	if cfg.Renderer.Binary != defaultRendererBinary {
		t.Fatalf("renderer binary = %q, want %q", cfg.Renderer.Binary, defaultRendererBinary)
	}
	if cfg.Pipeline.MaxConcurrentPreprocess != defaultMaxConcurrentPreprocess {
		t.Fatalf("max concurrent = %d, want %d", cfg.Pipeline.MaxConcurrentPreprocess, defaultMaxConcurrentPreprocess)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[matching]
confidence_threshold = 0.4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("data_dir = %q", cfg.Paths.DataDir)
	}
	if cfg.Matching.ConfidenceThreshold != 0.4 {
		t.Fatalf("confidence_threshold = %v, want 0.4", cfg.Matching.ConfidenceThreshold)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("logging format = %q, want console default", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[matching]
confidence_threshold = 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
	if !strings.Contains(err.Error(), "confidence_threshold") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported logging format")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}
	got, err := expandPath("~/slate-test")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "slate-test") {
		t.Fatalf("expandPath = %q", got)
	}
}

func TestCreateSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load of sample config returned error: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist after CreateSample")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config failed validation: %v", err)
	}
}
