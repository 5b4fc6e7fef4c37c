package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

func strongStats() evidence.Stats {
	return evidence.Stats{
		SpanCount:         3,
		SectionCount:      3,
		EvidenceTokens:    200,
		RequirementTokens: 20,
		MeanSimilarity:    0.7,
		TopSimilarity:     0.8,
	}
}

func compliantSignal() Signal {
	return Signal{
		Status:       models.StatusCompliant,
		CoveredRatio: 1.0,
		QuoteCount:   3,
	}
}

func TestScoreStaysBelowCap(t *testing.T) {
	w := DefaultWeights()

	// saturate every term
	stats := evidence.Stats{
		SpanCount:      10,
		SectionCount:   10,
		EvidenceTokens: 1000,
		MeanSimilarity: 1.0,
		TopSimilarity:  1.0,
	}
	score := Score(stats, compliantSignal(), w)

	assert.Less(t, score, w.Cap, "confidence must stay strictly below the cap")
	assert.Greater(t, score, w.HighThreshold)
	assert.Equal(t, "high", Band(score, w))
}

func TestScoreNoEvidence(t *testing.T) {
	w := DefaultWeights()

	score := Score(evidence.Stats{}, Signal{Status: models.StatusInsufficientEvidence}, w)

	assert.Less(t, score, w.InsufficientCeiling)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.Equal(t, "insufficient", Band(score, w))
}

func TestScoreThinEvidenceTreatedAsNone(t *testing.T) {
	w := DefaultWeights()

	stats := evidence.Stats{SpanCount: 1, EvidenceTokens: 2, MeanSimilarity: 0.9}
	score := Score(stats, compliantSignal(), w)

	assert.Less(t, score, w.InsufficientCeiling)
}

func TestScoreMonotonicInCoverage(t *testing.T) {
	w := DefaultWeights()
	stats := strongStats()

	full := Score(stats, Signal{Status: models.StatusCompliant, CoveredRatio: 1.0}, w)
	half := Score(stats, Signal{Status: models.StatusPartial, CoveredRatio: 0.5}, w)
	none := Score(stats, Signal{Status: models.StatusNonCompliant, CoveredRatio: 0.0}, w)

	assert.Greater(t, full, half)
	assert.Greater(t, half, none)
}

func TestScoreContradictionPenalty(t *testing.T) {
	w := DefaultWeights()
	stats := strongStats()

	clean := Score(stats, compliantSignal(), w)

	contradicted := compliantSignal()
	contradicted.ContradictionCount = 1
	penalized := Score(stats, contradicted, w)

	contradicted.ContradictionCount = 2
	doublePenalized := Score(stats, contradicted, w)

	assert.Less(t, penalized, clean)
	assert.Less(t, doublePenalized, penalized)
	assert.InDelta(t, clean*w.ContradictionPenalty, penalized, 1e-9)
}

func TestScoreInsufficientVerdictCapped(t *testing.T) {
	w := DefaultWeights()

	// strong retrieval but the verdict itself is insufficient evidence
	signal := Signal{Status: models.StatusInsufficientEvidence, CoveredRatio: 0}
	score := Score(strongStats(), signal, w)

	assert.Less(t, score, w.InsufficientCeiling)
	assert.Equal(t, "insufficient", Band(score, w))
}

func TestScoreDeterministic(t *testing.T) {
	w := DefaultWeights()
	stats := strongStats()
	signal := compliantSignal()

	first := Score(stats, signal, w)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(stats, signal, w))
	}
}

func TestBandBoundaries(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, "insufficient", Band(0.29, w))
	assert.Equal(t, "low", Band(0.30, w))
	assert.Equal(t, "low", Band(0.54, w))
	assert.Equal(t, "moderate", Band(0.55, w))
	assert.Equal(t, "moderate", Band(0.79, w))
	assert.Equal(t, "high", Band(0.80, w))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	cases := []struct {
		name   string
		mutate func(*Weights)
	}{
		{"CapAboveOne", func(w *Weights) { w.Cap = 1.5 }},
		{"CapZero", func(w *Weights) { w.Cap = 0 }},
		{"NegativeTerm", func(w *Weights) { w.Similarity = -0.1 }},
		{"PenaltyZero", func(w *Weights) { w.ContradictionPenalty = 0 }},
		{"CeilingAboveCap", func(w *Weights) { w.InsufficientCeiling = 0.99 }},
		{"BandsNotIncreasing", func(w *Weights) { w.ModerateThreshold = 0.2 }},
		{"NegativeMinTokens", func(w *Weights) { w.MinEvidenceTokens = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := DefaultWeights()
			tc.mutate(&w)
			err := w.Validate()
			require.Error(t, err)
			var cerr *models.ConfigurationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
