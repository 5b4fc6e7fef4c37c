package scorer

import (
	"math"

	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// capMargin keeps every score strictly below the cap.
const capMargin = 0.001

// Weights is the scoring configuration. Every score is a pure function of
// the inputs and these weights; no randomness, no model-reported numbers.
type Weights struct {
	Cap                  float64 // absolute ceiling, scores stay strictly below it
	Similarity           float64 // weight of the retrieval similarity term
	Coverage             float64 // weight of the control coverage term
	Diversity            float64 // weight of the section diversity term
	Agreement            float64 // weight of the independent-span term
	ContradictionPenalty float64 // multiplier applied once per contradiction
	InsufficientCeiling  float64 // upper bound of the insufficient-evidence band
	ModerateThreshold    float64 // lower bound of the moderate band
	HighThreshold        float64 // lower bound of the high band
	MinEvidenceTokens    int     // evidence below this counts as none
}

// DefaultWeights returns the default scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Cap:                  0.97,
		Similarity:           0.35,
		Coverage:             0.25,
		Diversity:            0.15,
		Agreement:            0.10,
		ContradictionPenalty: 0.6,
		InsufficientCeiling:  0.30,
		ModerateThreshold:    0.55,
		HighThreshold:        0.80,
		MinEvidenceTokens:    5,
	}
}

// Validate checks the weights for impossible combinations.
func (w Weights) Validate() error {
	if w.Cap <= 0 || w.Cap > 1 {
		return models.NewConfigurationError("scorer.cap", "must be in (0, 1], got %g", w.Cap)
	}
	if w.Similarity < 0 || w.Coverage < 0 || w.Diversity < 0 || w.Agreement < 0 {
		return models.NewConfigurationError("scorer.weights", "term weights must be non-negative")
	}
	if w.ContradictionPenalty <= 0 || w.ContradictionPenalty > 1 {
		return models.NewConfigurationError("scorer.contradiction_penalty", "must be in (0, 1], got %g", w.ContradictionPenalty)
	}
	if w.InsufficientCeiling <= 0 || w.InsufficientCeiling >= w.Cap {
		return models.NewConfigurationError("scorer.insufficient_ceiling", "must be in (0, cap=%g), got %g", w.Cap, w.InsufficientCeiling)
	}
	if w.ModerateThreshold <= w.InsufficientCeiling || w.HighThreshold <= w.ModerateThreshold || w.HighThreshold >= w.Cap {
		return models.NewConfigurationError("scorer.bands", "band thresholds must be strictly increasing below the cap")
	}
	if w.MinEvidenceTokens < 0 {
		return models.NewConfigurationError("scorer.min_evidence_tokens", "must be non-negative, got %d", w.MinEvidenceTokens)
	}
	return nil
}

// Signal is the evaluation outcome the score folds in alongside the
// retrieval statistics.
type Signal struct {
	Status             models.Status // the recomputed verdict
	CoveredRatio       float64       // covered controls / total controls, in [0, 1]
	QuoteCount         int           // validated quotes backing the verdict
	ContradictionCount int           // controls with contradicting evidence
}

// Score computes the confidence for one finding. It is deterministic:
// identical stats and signal always produce the identical float.
func Score(stats evidence.Stats, signal Signal, w Weights) float64 {
	// no usable evidence pins the score inside the insufficient band
	if stats.SpanCount == 0 || stats.EvidenceTokens < w.MinEvidenceTokens {
		score := 0.05 + 0.20*clamp01(stats.MeanSimilarity)
		ceiling := w.InsufficientCeiling - capMargin
		if score > ceiling {
			score = ceiling
		}
		return score
	}

	simTerm := clamp01(0.5*stats.MeanSimilarity + 0.5*stats.TopSimilarity)
	covTerm := clamp01(signal.CoveredRatio)
	divTerm := clamp01(float64(stats.SectionCount) / 3.0)
	agrTerm := clamp01(float64(stats.SpanCount-1) / 2.0)

	score := 0.15 +
		w.Similarity*simTerm +
		w.Coverage*covTerm +
		w.Diversity*divTerm +
		w.Agreement*agrTerm

	if signal.ContradictionCount > 0 {
		score *= math.Pow(w.ContradictionPenalty, float64(signal.ContradictionCount))
	}

	// a verdict of insufficient evidence never scores above its band
	if signal.Status == models.StatusInsufficientEvidence {
		ceiling := w.InsufficientCeiling - capMargin
		if score > ceiling {
			score = ceiling
		}
	}

	if score >= w.Cap {
		score = w.Cap - capMargin
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Band labels a score with its confidence band.
func Band(score float64, w Weights) string {
	switch {
	case score < w.InsufficientCeiling:
		return "insufficient"
	case score < w.ModerateThreshold:
		return "low"
	case score < w.HighThreshold:
		return "moderate"
	default:
		return "high"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
