package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"slate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ScriptsDir = filepath.Join(base, "scripts")
	cfgVal.Paths.PreviewDir = filepath.Join(base, "previews")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPreprocessTimeout sets the preprocessing timeout in seconds.
func WithPreprocessTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.PreprocessTimeoutSeconds = seconds
	}
}

// WithStubRenderer writes a renderer stub that creates the file named by its
// -output argument, and points the config at it.
func WithStubRenderer() ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\nout=\"\"\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"-output\" ]; then out=\"$2\"; fi\n  shift\ndone\nif [ -n \"$out\" ]; then : > \"$out\"; fi\nexit 0\n"
		b.cfg.Renderer.Binary = writeStub(b.t, b.baseDir, "render-stub", script)
	}
}

// WithFailingRenderer points the config at a renderer stub that always fails.
func WithFailingRenderer() ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\necho 'render failed' >&2\nexit 1\n"
		b.cfg.Renderer.Binary = writeStub(b.t, b.baseDir, "render-fail", script)
	}
}

func writeStub(t testing.TB, baseDir, name, script string) string {
	t.Helper()

	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
