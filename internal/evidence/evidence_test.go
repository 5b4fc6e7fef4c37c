package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
)

var testDoc = strings.Repeat("word ", 200) // 1000 bytes, offsets 0..999

func ev(chunkID string, start, end int, section string, score float64) retriever.Evidence {
	return retriever.Evidence{
		ChunkID:    chunkID,
		DocumentID: "doc1",
		Section:    section,
		Start:      start,
		End:        end,
		Text:       testDoc[start:end],
		Score:      score,
	}
}

func TestMergeOverlappingChunks(t *testing.T) {
	agg := NewAggregator(0)

	spans := agg.Merge(testDoc, []retriever.Evidence{
		ev("c1", 0, 100, "Section 1", 0.9),
		ev("c2", 80, 180, "Section 1", 0.7),
		ev("c3", 500, 600, "Section 2", 0.5),
	})

	require.Len(t, spans, 2)

	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 180, spans[0].End)
	assert.Equal(t, []string{"c1", "c2"}, spans[0].ChunkIDs)
	assert.Equal(t, []string{"Section 1"}, spans[0].Sections)
	assert.InDelta(t, 0.9, spans[0].TopScore, 1e-9)
	assert.InDelta(t, 0.8, spans[0].MeanScore, 1e-9)
	assert.Equal(t, testDoc[0:180], spans[0].Text)

	assert.Equal(t, 500, spans[1].Start)
	assert.Equal(t, 600, spans[1].End)
}

func TestMergeProximityWindow(t *testing.T) {
	items := []retriever.Evidence{
		ev("c1", 0, 100, "", 0.9),
		ev("c2", 130, 200, "", 0.8),
	}

	t.Run("GapWithinWindow", func(t *testing.T) {
		spans := NewAggregator(50).Merge(testDoc, items)
		require.Len(t, spans, 1)
		assert.Equal(t, 0, spans[0].Start)
		assert.Equal(t, 200, spans[0].End)
	})

	t.Run("GapBeyondWindow", func(t *testing.T) {
		spans := NewAggregator(10).Merge(testDoc, items)
		assert.Len(t, spans, 2)
	})
}

func TestMergeUnsortedInput(t *testing.T) {
	agg := NewAggregator(0)

	// retrieval order is score-ranked, not offset-ranked
	spans := agg.Merge(testDoc, []retriever.Evidence{
		ev("c3", 500, 600, "", 0.95),
		ev("c1", 0, 100, "", 0.6),
		ev("c2", 50, 150, "", 0.5),
	})

	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 500, spans[1].Start)
}

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, NewAggregator(0).Merge(testDoc, nil))
}

func TestComputeStats(t *testing.T) {
	req := models.Requirement{
		ID:          "REQ-1",
		Name:        "Encryption",
		Description: "Data must be encrypted at rest",
		Controls:    []string{"encryption at rest"},
	}

	agg := NewAggregator(0)
	spans := agg.Merge(testDoc, []retriever.Evidence{
		ev("c1", 0, 100, "Section 1", 0.9),
		ev("c2", 80, 180, "Section 2", 0.7),
		ev("c3", 500, 600, "Section 2", 0.5),
	})

	stats := ComputeStats(req, spans)

	assert.Equal(t, 2, stats.SpanCount)
	assert.Equal(t, 2, stats.SectionCount, "Section 2 appears in both spans but counts once")
	assert.Greater(t, stats.EvidenceTokens, 0)
	assert.Greater(t, stats.RequirementTokens, 0)
	assert.InDelta(t, 0.9, stats.TopSimilarity, 1e-9)
	assert.InDelta(t, 0.7, stats.MeanSimilarity, 1e-9)
}

func TestComputeStatsNoEvidence(t *testing.T) {
	req := models.Requirement{ID: "REQ-1", Name: "X", Description: "Y"}

	stats := ComputeStats(req, nil)

	assert.Equal(t, 0, stats.SpanCount)
	assert.Equal(t, 0, stats.EvidenceTokens)
	assert.Zero(t, stats.MeanSimilarity)
	assert.Zero(t, stats.TopSimilarity)
}

func TestSummary(t *testing.T) {
	stats := Stats{
		SpanCount:      2,
		SectionCount:   3,
		EvidenceTokens: 120,
		MeanSimilarity: 0.61,
		TopSimilarity:  0.88,
	}

	summary := Summary(stats)
	assert.Equal(t, 2, summary.Spans)
	assert.Equal(t, 3, summary.Sections)
	assert.Equal(t, 120, summary.EvidenceTokens)
	assert.InDelta(t, 0.61, summary.MeanSimilarity, 1e-9)
	assert.InDelta(t, 0.88, summary.TopSimilarity, 1e-9)
}
