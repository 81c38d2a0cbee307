package assets

import (
	"errors"
	"path/filepath"
	"testing"

	"slate/internal/services"
)

func TestSidecarPathsReplaceExtension(t *testing.T) {
	if got := LayerSidecarPath("/work/spring.psd"); got != "/work/spring.layers.json" {
		t.Fatalf("layer sidecar = %q", got)
	}
	if got := PlaceholderSidecarPath("/work/promo.aepx"); got != "/work/promo.placeholders.json" {
		t.Fatalf("placeholder sidecar = %q", got)
	}
}

func TestLayersRoundTrip(t *testing.T) {
	design := filepath.Join(t.TempDir(), "spring.psd")
	layers := []Layer{
		{Name: "Headline", Kind: KindText, Width: 1200, Height: 200, Text: "Spring Sale"},
		{Name: "Hero", Kind: KindImage, Width: 1920, Height: 1080, AssetPath: "/assets/hero.png"},
	}
	if err := WriteLayers(design, layers); err != nil {
		t.Fatalf("write layers: %v", err)
	}

	loaded, err := LoadLayers(design)
	if err != nil {
		t.Fatalf("load layers: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len = %d, want 2", len(loaded))
	}
	if loaded[0].Name != "Headline" || loaded[1].AssetPath != "/assets/hero.png" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestLoadLayersMissingSidecar(t *testing.T) {
	_, err := LoadLayers(filepath.Join(t.TempDir(), "absent.psd"))
	if err == nil {
		t.Fatal("expected error for missing sidecar")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestPlaceholdersRoundTrip(t *testing.T) {
	template := filepath.Join(t.TempDir(), "promo.aepx")
	placeholders := []Placeholder{
		{Name: "headline", Kind: KindText, Width: 1200, Height: 200, Required: true},
	}
	if err := WritePlaceholders(template, placeholders); err != nil {
		t.Fatalf("write placeholders: %v", err)
	}

	loaded, err := LoadPlaceholders(template)
	if err != nil {
		t.Fatalf("load placeholders: %v", err)
	}
	if len(loaded) != 1 || !loaded[0].Required {
		t.Fatalf("loaded = %+v", loaded)
	}
}
