package testsupport

import (
	"path/filepath"
	"testing"

	"slate/internal/assets"
)

// WriteDesignSidecar writes a design file path plus its layer sidecar into
// the test's temp space and returns the design path.
func WriteDesignSidecar(t testing.TB, dir string, layers []assets.Layer) string {
	t.Helper()

	design := filepath.Join(dir, "design.psd")
	if err := assets.WriteLayers(design, layers); err != nil {
		t.Fatalf("write layer sidecar: %v", err)
	}
	return design
}

// WriteTemplateSidecar writes a template file path plus its placeholder
// sidecar into the test's temp space and returns the template path.
func WriteTemplateSidecar(t testing.TB, dir string, placeholders []assets.Placeholder) string {
	t.Helper()

	template := filepath.Join(dir, "template.aepx")
	if err := assets.WritePlaceholders(template, placeholders); err != nil {
		t.Fatalf("write placeholder sidecar: %v", err)
	}
	return template
}
