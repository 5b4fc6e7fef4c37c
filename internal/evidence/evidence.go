package evidence

import (
	"sort"

	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
)

// Span is a maximal merged run of retrieved evidence. Overlapping and
// near-adjacent chunks collapse into one span so the same clause retrieved
// twice never counts as independent support.
type Span struct {
	DocumentID string   // owning document
	Start      int      // span start offset
	End        int      // span end offset (exclusive)
	Text       string   // verbatim document text for the span
	Sections   []string // distinct section labels, in offset order
	ChunkIDs   []string // contributing chunks, in offset order
	TopScore   float64  // best similarity among contributing chunks
	MeanScore  float64  // mean similarity among contributing chunks
}

// TokenCount returns the approximate token length of the span text.
func (s Span) TokenCount() int {
	return document.TokenCount(s.Text)
}

// Stats summarizes evidence coverage for one requirement. All fields are
// pure functions of the spans and the requirement, so the same retrieval
// always produces the same stats.
type Stats struct {
	SpanCount         int     // disjoint spans after merging
	SectionCount      int     // distinct section labels across spans
	EvidenceTokens    int     // total span tokens, overlap counted once
	RequirementTokens int     // token length of the requirement text
	MeanSimilarity    float64 // mean over all contributing chunks
	TopSimilarity     float64 // best similarity overall
}

// Aggregator merges retrieved evidence into disjoint spans.
type Aggregator struct {
	proximityWindow int
}

// NewAggregator creates an aggregator. Chunks whose gap is at most
// proximityWindow bytes merge into one span.
func NewAggregator(proximityWindow int) *Aggregator {
	if proximityWindow < 0 {
		proximityWindow = 0
	}
	return &Aggregator{proximityWindow: proximityWindow}
}

// Merge sorts evidence by offset and folds overlapping or near-adjacent
// chunks into spans. docText must be the text the chunk offsets refer to.
func (a *Aggregator) Merge(docText string, items []retriever.Evidence) []Span {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]retriever.Evidence, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var spans []Span
	var group []retriever.Evidence

	flush := func() {
		if len(group) == 0 {
			return
		}
		spans = append(spans, buildSpan(docText, group))
		group = nil
	}

	for _, item := range sorted {
		if len(group) > 0 {
			groupEnd := group[0].End
			for _, g := range group {
				if g.End > groupEnd {
					groupEnd = g.End
				}
			}
			if item.Start > groupEnd+a.proximityWindow {
				flush()
			}
		}
		group = append(group, item)
	}
	flush()

	return spans
}

// buildSpan collapses one group of offset-sorted evidence into a span.
func buildSpan(docText string, group []retriever.Evidence) Span {
	span := Span{
		DocumentID: group[0].DocumentID,
		Start:      group[0].Start,
		End:        group[0].End,
		TopScore:   group[0].Score,
	}

	var scoreSum float64
	seenSections := make(map[string]bool)

	for _, item := range group {
		if item.End > span.End {
			span.End = item.End
		}
		if item.Score > span.TopScore {
			span.TopScore = item.Score
		}
		scoreSum += item.Score
		span.ChunkIDs = append(span.ChunkIDs, item.ChunkID)

		if item.Section != "" && !seenSections[item.Section] {
			seenSections[item.Section] = true
			span.Sections = append(span.Sections, item.Section)
		}
	}

	span.MeanScore = scoreSum / float64(len(group))
	if span.Start >= 0 && span.End <= len(docText) && span.Start < span.End {
		span.Text = docText[span.Start:span.End]
	}

	return span
}

// ComputeStats derives coverage statistics from merged spans.
func ComputeStats(req models.Requirement, spans []Span) Stats {
	stats := Stats{
		SpanCount:         len(spans),
		RequirementTokens: req.TokenCount(),
	}

	if len(spans) == 0 {
		return stats
	}

	seenSections := make(map[string]bool)
	var scoreSum float64
	var chunkCount int

	for _, span := range spans {
		stats.EvidenceTokens += span.TokenCount()
		for _, section := range span.Sections {
			if !seenSections[section] {
				seenSections[section] = true
				stats.SectionCount++
			}
		}
		// MeanScore was averaged over the span's chunks; weight it back
		scoreSum += span.MeanScore * float64(len(span.ChunkIDs))
		chunkCount += len(span.ChunkIDs)
		if span.TopScore > stats.TopSimilarity {
			stats.TopSimilarity = span.TopScore
		}
	}

	if chunkCount > 0 {
		stats.MeanSimilarity = scoreSum / float64(chunkCount)
	}

	return stats
}

// Summary converts stats into the persisted coverage form.
func Summary(stats Stats) models.CoverageSummary {
	return models.CoverageSummary{
		Spans:          stats.SpanCount,
		Sections:       stats.SectionCount,
		EvidenceTokens: stats.EvidenceTokens,
		MeanSimilarity: stats.MeanSimilarity,
		TopSimilarity:  stats.TopSimilarity,
	}
}
