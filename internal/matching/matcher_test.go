package matching

import (
	"testing"

	"slate/internal/assets"
)

func TestMatchPairsIdenticalNames(t *testing.T) {
	matcher := New(0.55, 0.75)
	outcome := matcher.Match(
		[]assets.Layer{
			{Name: "Headline", Kind: assets.KindText, Width: 1200, Height: 200},
			{Name: "Hero Image", Kind: assets.KindImage, Width: 1920, Height: 1080},
		},
		[]assets.Placeholder{
			{Name: "headline", Kind: assets.KindText, Width: 1200, Height: 200},
			{Name: "hero image", Kind: assets.KindImage, Width: 1920, Height: 1080},
		},
	)

	if len(outcome.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(outcome.Matches))
	}
	for _, match := range outcome.Matches {
		if match.Confidence < 0.95 {
			t.Fatalf("confidence for %s = %v, want near 1", match.Layer, match.Confidence)
		}
		if match.LowConfidence {
			t.Fatalf("exact match %s flagged low confidence", match.Layer)
		}
	}
	if len(outcome.UnmatchedLayers) != 0 || len(outcome.UnmatchedPlaceholders) != 0 {
		t.Fatalf("unexpected unmatched: %+v", outcome)
	}
}

func TestMatchAssignsEachPlaceholderOnce(t *testing.T) {
	matcher := New(0.3, 0.75)
	outcome := matcher.Match(
		[]assets.Layer{
			{Name: "title main", Kind: assets.KindText},
			{Name: "title alt", Kind: assets.KindText},
		},
		[]assets.Placeholder{
			{Name: "title main", Kind: assets.KindText},
		},
	)

	if len(outcome.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(outcome.Matches))
	}
	if outcome.Matches[0].Layer != "title main" {
		t.Fatalf("best layer = %q", outcome.Matches[0].Layer)
	}
	if len(outcome.UnmatchedLayers) != 1 || outcome.UnmatchedLayers[0] != "title alt" {
		t.Fatalf("unmatched layers = %v", outcome.UnmatchedLayers)
	}
}

func TestMatchBelowThresholdStaysUnmatched(t *testing.T) {
	matcher := New(0.55, 0.75)
	outcome := matcher.Match(
		[]assets.Layer{{Name: "background texture", Kind: assets.KindImage}},
		[]assets.Placeholder{{Name: "headline", Kind: assets.KindText, Required: true}},
	)

	if len(outcome.Matches) != 0 {
		t.Fatalf("matches = %v, want none", outcome.Matches)
	}
	if len(outcome.UnmatchedPlaceholders) != 1 {
		t.Fatalf("unmatched placeholders = %v", outcome.UnmatchedPlaceholders)
	}
}

func TestMatchFlagsLowConfidence(t *testing.T) {
	matcher := New(0.4, 0.95)
	outcome := matcher.Match(
		[]assets.Layer{{Name: "promo headline copy", Kind: assets.KindText}},
		[]assets.Placeholder{{Name: "headline", Kind: assets.KindText}},
	)

	if len(outcome.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(outcome.Matches))
	}
	if !outcome.Matches[0].LowConfidence {
		t.Fatalf("partial name overlap should flag low confidence: %+v", outcome.Matches[0])
	}
}

func TestKindMismatchLowersScore(t *testing.T) {
	sameKind := scorePair(
		assets.Layer{Name: "hero", Kind: assets.KindImage},
		assets.Placeholder{Name: "hero", Kind: assets.KindImage},
	)
	crossKind := scorePair(
		assets.Layer{Name: "hero", Kind: assets.KindText},
		assets.Placeholder{Name: "hero", Kind: assets.KindImage},
	)
	if crossKind >= sameKind {
		t.Fatalf("cross-kind score %v should be below same-kind %v", crossKind, sameKind)
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	if got := cosineSimilarity(nil, newFingerprint("title")); got != 0 {
		t.Fatalf("nil fingerprint similarity = %v", got)
	}
	self := newFingerprint("spring sale headline")
	if got := cosineSimilarity(self, self); got < 0.999 {
		t.Fatalf("self similarity = %v", got)
	}
}
