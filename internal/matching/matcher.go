package matching

import (
	"sort"
	"strings"

	"slate/internal/assets"
)

// Match pairs one layer with one placeholder at a confidence score.
type Match struct {
	Layer         string  `json:"layer"`
	Placeholder   string  `json:"placeholder"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence,omitempty"`
}

// Outcome is the complete result of matching one layer set against one
// placeholder set.
type Outcome struct {
	Matches               []Match  `json:"matches"`
	UnmatchedLayers       []string `json:"unmatched_layers,omitempty"`
	UnmatchedPlaceholders []string `json:"unmatched_placeholders,omitempty"`
}

// Matcher scores layer/placeholder pairs and assigns them greedily.
type Matcher struct {
	threshold float64
	lowFloor  float64
}

// New constructs a Matcher. Pairs scoring below threshold stay unmatched;
// matches scoring below lowFloor are flagged for reviewer attention.
func New(threshold, lowFloor float64) *Matcher {
	return &Matcher{threshold: threshold, lowFloor: lowFloor}
}

// Scoring weights. Name similarity dominates; kind agreement and dimension
// fit break ties between similarly named candidates.
const (
	nameWeight = 0.7
	kindWeight = 0.2
	sizeWeight = 0.1
)

type candidate struct {
	layerIdx       int
	placeholderIdx int
	score          float64
}

// Match assigns each layer to at most one placeholder. Candidate pairs are
// scored, sorted best first, and assigned greedily so every layer and
// placeholder participates in at most one match.
func (m *Matcher) Match(layers []assets.Layer, placeholders []assets.Placeholder) Outcome {
	candidates := make([]candidate, 0, len(layers)*len(placeholders))
	for li, layer := range layers {
		for pi, placeholder := range placeholders {
			score := scorePair(layer, placeholder)
			if score < m.threshold {
				continue
			}
			candidates = append(candidates, candidate{layerIdx: li, placeholderIdx: pi, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	usedLayers := make(map[int]struct{}, len(layers))
	usedPlaceholders := make(map[int]struct{}, len(placeholders))
	var outcome Outcome

	for _, cand := range candidates {
		if _, taken := usedLayers[cand.layerIdx]; taken {
			continue
		}
		if _, taken := usedPlaceholders[cand.placeholderIdx]; taken {
			continue
		}
		usedLayers[cand.layerIdx] = struct{}{}
		usedPlaceholders[cand.placeholderIdx] = struct{}{}
		outcome.Matches = append(outcome.Matches, Match{
			Layer:         layers[cand.layerIdx].Name,
			Placeholder:   placeholders[cand.placeholderIdx].Name,
			Confidence:    cand.score,
			LowConfidence: cand.score < m.lowFloor,
		})
	}

	for li, layer := range layers {
		if _, ok := usedLayers[li]; !ok {
			outcome.UnmatchedLayers = append(outcome.UnmatchedLayers, layer.Name)
		}
	}
	for pi, placeholder := range placeholders {
		if _, ok := usedPlaceholders[pi]; !ok {
			outcome.UnmatchedPlaceholders = append(outcome.UnmatchedPlaceholders, placeholder.Name)
		}
	}
	return outcome
}

func scorePair(layer assets.Layer, placeholder assets.Placeholder) float64 {
	name := nameSimilarity(layer.Name, placeholder.Name)
	kind := kindAgreement(layer.Kind, placeholder.Kind)
	size := dimensionFit(layer, placeholder)
	return nameWeight*name + kindWeight*kind + sizeWeight*size
}

func nameSimilarity(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	return cosineSimilarity(newFingerprint(a), newFingerprint(b))
}

func kindAgreement(layerKind, placeholderKind string) float64 {
	if layerKind == "" || placeholderKind == "" {
		return 0.5
	}
	if strings.EqualFold(layerKind, placeholderKind) {
		return 1
	}
	return 0
}

// dimensionFit compares aspect ratios. Identical ratios score 1; the score
// decays linearly and bottoms out at 0 for ratios differing by 50% or more.
func dimensionFit(layer assets.Layer, placeholder assets.Placeholder) float64 {
	if layer.Width <= 0 || layer.Height <= 0 || placeholder.Width <= 0 || placeholder.Height <= 0 {
		return 0.5
	}
	layerRatio := float64(layer.Width) / float64(layer.Height)
	placeholderRatio := float64(placeholder.Width) / float64(placeholder.Height)
	diff := layerRatio - placeholderRatio
	if diff < 0 {
		diff = -diff
	}
	relative := diff / placeholderRatio
	if relative >= 0.5 {
		return 0
	}
	return 1 - relative*2
}
