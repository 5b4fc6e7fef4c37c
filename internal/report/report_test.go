package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
)

func TestGroupQuotesNumericSectionOrder(t *testing.T) {
	quotes := []models.Quote{
		{ChunkID: "c1", Section: "Section 10.2", Text: "quote a"},
		{ChunkID: "c2", Section: "Section 6.7", Text: "quote b"},
		{ChunkID: "c3", Section: "Section 6.7", Text: "quote c"},
		{ChunkID: "c4", Section: "", Text: "quote d"},
		{ChunkID: "c5", Section: "Exhibit B", Text: "quote e"},
	}

	groups := GroupQuotes(quotes)
	require.Len(t, groups, 4)

	assert.Equal(t, "Section 6.7", groups[0].Section)
	assert.Equal(t, []string{"quote b", "quote c"}, groups[0].Quotes)
	assert.Equal(t, "Section 10.2", groups[1].Section)

	// labels without numbers sort after numbered ones
	assert.Equal(t, "Exhibit B", groups[2].Section)
	assert.Equal(t, "Unlabeled", groups[3].Section)
}

func TestGroupQuotesEmpty(t *testing.T) {
	assert.Empty(t, GroupQuotes(nil))
}

func TestGroupQuotesDedupsRepeatedText(t *testing.T) {
	// the same passage cited from two overlapping chunks appears once
	quotes := []models.Quote{
		{ChunkID: "c1", Section: "Section 6.7", Text: "thirty days notice"},
		{ChunkID: "c2", Section: "Section 6.7", Text: "thirty days notice"},
		{ChunkID: "c3", Section: "Section 6.7", Text: "written notice"},
		{ChunkID: "c4", Section: "Section 9.1", Text: "thirty days notice"},
	}

	groups := GroupQuotes(quotes)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"thirty days notice", "written notice"}, groups[0].Quotes)
	// dedup is per section label, not global
	assert.Equal(t, []string{"thirty days notice"}, groups[1].Quotes)
}

func TestBuildFollowsRequirementOrder(t *testing.T) {
	set := &standards.Set{
		Name: "test",
		Requirements: []models.Requirement{
			{ID: "REQ-1", Name: "First", Description: "d"},
			{ID: "REQ-2", Name: "Second", Description: "d"},
			{ID: "REQ-3", Name: "Third", Description: "d"},
		},
	}
	findings := []models.Finding{
		{RequirementID: "REQ-3", Status: models.StatusCompliant, Confidence: 0.9, Band: "high"},
		{RequirementID: "REQ-1", Status: models.StatusPartial, Confidence: 0.6, Band: "moderate"},
	}

	rows := Build(set, findings)
	require.Len(t, rows, 2, "requirements without findings are skipped")

	assert.Equal(t, "REQ-1", rows[0].RequirementID)
	assert.Equal(t, "First", rows[0].RequirementName)
	assert.Equal(t, "REQ-3", rows[1].RequirementID)
}

func TestSummarize(t *testing.T) {
	findings := []models.Finding{
		{Status: models.StatusCompliant, Confidence: 0.9},
		{Status: models.StatusCompliant, Confidence: 0.8},
		{Status: models.StatusNonCompliant, Confidence: 0.7},
		{Status: models.StatusInsufficientEvidence, Confidence: 0.2},
	}

	s := Summarize(findings)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Compliant)
	assert.Equal(t, 1, s.NonCompliant)
	assert.Equal(t, 0, s.Partial)
	assert.Equal(t, 1, s.InsufficientEvidence)
	assert.InDelta(t, 0.65, s.MeanConfidence, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.MeanConfidence)
}

func TestLessSectionLabel(t *testing.T) {
	assert.True(t, lessSectionLabel("Section 2", "Section 10"))
	assert.True(t, lessSectionLabel("Section 6.7", "Section 6.7.1"))
	assert.True(t, lessSectionLabel("Section 6.7", "Exhibit B"))
	assert.False(t, lessSectionLabel("Unlabeled", "Section 1"))
	assert.True(t, lessSectionLabel("Appendix A", "Appendix B"))
}
