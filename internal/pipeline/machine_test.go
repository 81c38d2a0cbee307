package pipeline

import (
	"testing"

	"slate/internal/jobs"
)

func TestTransitionTableEdges(t *testing.T) {
	legal := []struct {
		from, to jobs.Stage
	}{
		{jobs.StageIngested, jobs.StageExtraction},
		{jobs.StageExtraction, jobs.StageMatchReview},
		{jobs.StageMatchReview, jobs.StageValidation},
		{jobs.StageValidation, jobs.StageValidationReview},
		{jobs.StageValidation, jobs.StageScripting},
		{jobs.StageValidationReview, jobs.StageMatchReview},
		{jobs.StageValidationReview, jobs.StageScripting},
		{jobs.StageScripting, jobs.StagePreview},
		{jobs.StagePreview, jobs.StageComplete},
	}
	for _, pair := range legal {
		if _, ok := findEdge(pair.from, pair.to); !ok {
			t.Fatalf("edge %s -> %s missing", pair.from, pair.to)
		}
	}

	illegal := []struct {
		from, to jobs.Stage
	}{
		{jobs.StageIngested, jobs.StageScripting},
		{jobs.StageMatchReview, jobs.StageExtraction},
		{jobs.StageExtraction, jobs.StageValidation},
		{jobs.StagePreview, jobs.StageMatchReview},
		{jobs.StageComplete, jobs.StageIngested},
	}
	for _, pair := range illegal {
		if _, ok := findEdge(pair.from, pair.to); ok {
			t.Fatalf("edge %s -> %s should not exist", pair.from, pair.to)
		}
	}
}

func TestOnlyRegressionEdgeGoesBackward(t *testing.T) {
	for _, edge := range transitionTable {
		backward := edge.To < edge.From
		if backward != edge.Regression {
			t.Fatalf("edge %s -> %s regression flag mismatch", edge.From, edge.To)
		}
	}
}

func TestOverrideEdgeIsValidationReviewToScripting(t *testing.T) {
	for _, edge := range transitionTable {
		if edge.RequiresOverride {
			if edge.From != jobs.StageValidationReview || edge.To != jobs.StageScripting {
				t.Fatalf("unexpected override edge %s -> %s", edge.From, edge.To)
			}
		}
	}
}

func TestSuccessorsForValidation(t *testing.T) {
	targets := Successors(jobs.StageValidation)
	if len(targets) != 2 {
		t.Fatalf("successors = %v", targets)
	}
}

func TestStageSpecsCoverPersistedStages(t *testing.T) {
	for s := jobs.StageIngested; s <= jobs.StageComplete; s++ {
		spec := SpecFor(s)
		if spec.EntryStatus == "" {
			t.Fatalf("stage %s has no entry status", s)
		}
		if spec.HasPreprocessing && spec.DoneStatus == "" {
			t.Fatalf("stage %s has preprocessing but no done status", s)
		}
	}
	if SpecFor(jobs.StageValidation).CriticalTo != jobs.StageValidationReview {
		t.Fatal("validation critical branch must target validation review")
	}
	if SpecFor(jobs.StageValidationReview).HasPreprocessing {
		t.Fatal("validation review is a pure review surface")
	}
}
