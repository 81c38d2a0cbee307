package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labelCaser = cases.Title(language.English)

// displayLabel renders a snake_case stage or status name for table output.
func displayLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(trimmed, "_", " "))
}
