package pipeline

import "slate/internal/jobs"

// Edge is one legal transition. Human edges require a human checkpoint; the
// pipeline itself only takes system edges.
type Edge struct {
	From             jobs.Stage
	To               jobs.Stage
	Human            bool
	Regression       bool
	RequiresOverride bool
}

// transitionTable is the complete state machine. Adding a branch means
// adding a row here, not new control flow.
var transitionTable = []Edge{
	{From: jobs.StageIngested, To: jobs.StageExtraction},
	{From: jobs.StageExtraction, To: jobs.StageMatchReview},
	{From: jobs.StageMatchReview, To: jobs.StageValidation, Human: true},
	{From: jobs.StageValidation, To: jobs.StageValidationReview},
	{From: jobs.StageValidation, To: jobs.StageScripting},
	{From: jobs.StageValidationReview, To: jobs.StageMatchReview, Human: true, Regression: true},
	{From: jobs.StageValidationReview, To: jobs.StageScripting, Human: true, RequiresOverride: true},
	{From: jobs.StageScripting, To: jobs.StagePreview},
	{From: jobs.StagePreview, To: jobs.StageComplete, Human: true},
}

func findEdge(from, to jobs.Stage) (Edge, bool) {
	for _, edge := range transitionTable {
		if edge.From == from && edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// Successors returns the legal target stages from a given stage.
func Successors(from jobs.Stage) []jobs.Stage {
	var targets []jobs.Stage
	for _, edge := range transitionTable {
		if edge.From == from {
			targets = append(targets, edge.To)
		}
	}
	return targets
}

// StageSpec describes pipeline behavior at one stage: the status a job takes
// on entry, whether entry launches the stage's processor, and where the
// pipeline advances once that processor finishes. CriticalTo overrides
// AdvanceTo when processing produced critical warnings or failed outright.
type StageSpec struct {
	EntryStatus      jobs.Status
	HasPreprocessing bool
	DoneStatus       jobs.Status
	AdvanceTo        jobs.Stage
	CriticalTo       jobs.Stage
}

var stageSpecs = map[jobs.Stage]StageSpec{
	jobs.StageIngested: {
		EntryStatus: jobs.StatusPending,
	},
	jobs.StageExtraction: {
		EntryStatus:      jobs.StatusProcessing,
		HasPreprocessing: true,
		DoneStatus:       jobs.StatusProcessing,
		AdvanceTo:        jobs.StageMatchReview,
	},
	jobs.StageMatchReview: {
		EntryStatus: jobs.StatusAwaitingReview,
	},
	jobs.StageValidation: {
		EntryStatus:      jobs.StatusProcessing,
		HasPreprocessing: true,
		DoneStatus:       jobs.StatusProcessing,
		AdvanceTo:        jobs.StageScripting,
		CriticalTo:       jobs.StageValidationReview,
	},
	jobs.StageValidationReview: {
		EntryStatus: jobs.StatusAwaitingValidationReview,
	},
	jobs.StageScripting: {
		EntryStatus:      jobs.StatusProcessing,
		HasPreprocessing: true,
		DoneStatus:       jobs.StatusProcessing,
		AdvanceTo:        jobs.StagePreview,
	},
	jobs.StagePreview: {
		EntryStatus:      jobs.StatusProcessing,
		HasPreprocessing: true,
		DoneStatus:       jobs.StatusAwaitingApproval,
	},
	jobs.StageComplete: {
		EntryStatus: jobs.StatusCompleted,
	},
}

// SpecFor returns the stage spec for a stage.
func SpecFor(stage jobs.Stage) StageSpec {
	return stageSpecs[stage]
}
