package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"slate/internal/services"
)

// Sidecar file suffixes. The exporters write these next to the source file,
// replacing its extension.
const (
	layerSidecarSuffix       = ".layers.json"
	placeholderSidecarSuffix = ".placeholders.json"
)

type layerSidecar struct {
	Layers []Layer `json:"layers"`
}

type placeholderSidecar struct {
	Placeholders []Placeholder `json:"placeholders"`
}

// LayerSidecarPath returns the layer sidecar location for a design file.
func LayerSidecarPath(designFile string) string {
	return sidecarPath(designFile, layerSidecarSuffix)
}

// PlaceholderSidecarPath returns the placeholder sidecar location for a template.
func PlaceholderSidecarPath(templateFile string) string {
	return sidecarPath(templateFile, placeholderSidecarSuffix)
}

func sidecarPath(source, suffix string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + suffix
}

// LoadLayers reads the layer sidecar for a design file.
func LoadLayers(designFile string) ([]Layer, error) {
	path := LayerSidecarPath(designFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "assets", "load layers",
			"Layer sidecar missing or unreadable; re-export the design file", err)
	}
	var sidecar layerSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "assets", "parse layers",
			"Layer sidecar is not valid JSON; re-export the design file", err)
	}
	return sidecar.Layers, nil
}

// LoadPlaceholders reads the placeholder sidecar for a template file.
func LoadPlaceholders(templateFile string) ([]Placeholder, error) {
	path := PlaceholderSidecarPath(templateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "assets", "load placeholders",
			"Placeholder sidecar missing or unreadable; re-export the template", err)
	}
	var sidecar placeholderSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "assets", "parse placeholders",
			"Placeholder sidecar is not valid JSON; re-export the template", err)
	}
	return sidecar.Placeholders, nil
}

// WriteLayers writes a layer sidecar next to a design file.
func WriteLayers(designFile string, layers []Layer) error {
	data, err := json.MarshalIndent(layerSidecar{Layers: layers}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(LayerSidecarPath(designFile), data, 0o644)
}

// WritePlaceholders writes a placeholder sidecar next to a template file.
func WritePlaceholders(templateFile string, placeholders []Placeholder) error {
	data, err := json.MarshalIndent(placeholderSidecar{Placeholders: placeholders}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(PlaceholderSidecarPath(templateFile), data, 0o644)
}
