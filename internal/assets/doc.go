// Package assets loads the extraction sidecars that upstream design and
// template parsers produce: the layer list exported from a design file and
// the placeholder list exported from a template.
package assets
