// Package matching pairs design layers with template placeholders using
// name similarity, kind agreement, and dimension fit. Scores are normalized
// to [0, 1]; callers apply their own confidence thresholds.
package matching
