package retriever

import (
	"context"
	"fmt"

	"github.com/sheorananshul/contract-analyzer/internal/embedding"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/vectordb"
)

// Evidence is one retrieved chunk scored against a requirement.
type Evidence struct {
	ChunkID    string  // chunk identifier
	DocumentID string  // owning document
	Section    string  // section label, may be empty
	Start      int     // chunk start offset in the document text
	End        int     // chunk end offset (exclusive)
	Text       string  // verbatim chunk text
	Score      float64 // similarity in [0, 1]
	Rank       int     // 0-based rank after dedup
}

// Config controls retrieval.
type Config struct {
	TopK            int     // evidence candidates per requirement
	SimilarityFloor float64 // drop hits scoring below this
	DedupRatio      float64 // offset-overlap ratio above which two hits are duplicates
}

// DefaultConfig returns the default retrieval parameters.
func DefaultConfig() Config {
	return Config{
		TopK:            12,
		SimilarityFloor: 0.25,
		DedupRatio:      0.8,
	}
}

// Validate checks the retrieval parameters.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return models.NewConfigurationError("retriever.top_k", "must be positive, got %d", c.TopK)
	}
	if c.SimilarityFloor < 0 || c.SimilarityFloor >= 1 {
		return models.NewConfigurationError("retriever.similarity_floor", "must be in [0, 1), got %g", c.SimilarityFloor)
	}
	if c.DedupRatio <= 0 || c.DedupRatio > 1 {
		return models.NewConfigurationError("retriever.dedup_ratio", "must be in (0, 1], got %g", c.DedupRatio)
	}
	return nil
}

// Retriever finds the document chunks most similar to a requirement.
// An empty result is a valid outcome, not an error; it means the document
// says nothing relevant.
type Retriever struct {
	embedder embedding.Client
	index    vectordb.Repository
	config   Config
}

// New creates a retriever over an index, validating the configuration.
func New(embedder embedding.Client, index vectordb.Repository, config Config) (*Retriever, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Retriever{embedder: embedder, index: index, config: config}, nil
}

// Retrieve embeds the requirement's query text and returns the top evidence
// chunks for a document, deduplicated and ranked. The same requirement over
// the same index always yields the same list in the same order.
func (r *Retriever) Retrieve(ctx context.Context, req models.Requirement, documentID string) ([]Evidence, error) {
	queryVector, err := r.embedder.Embed(ctx, req.QueryText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed requirement %s: %w", req.ID, err)
	}

	// overshoot so dedup losses do not shrink the final list below TopK
	filter := vectordb.SearchFilter{
		MinScore:   float32(r.config.SimilarityFloor),
		MaxResults: r.config.TopK * 2,
	}
	if documentID != "" {
		filter.DocumentIDs = []string{documentID}
	}

	results, err := r.index.Search(queryVector, filter)
	if err != nil {
		return nil, fmt.Errorf("index search failed for requirement %s: %w", req.ID, err)
	}

	evidence := dedupByOverlap(results, r.config.DedupRatio)
	if len(evidence) > r.config.TopK {
		evidence = evidence[:r.config.TopK]
	}

	for i := range evidence {
		evidence[i].Rank = i
	}
	return evidence, nil
}

// dedupByOverlap walks hits best-first and drops any chunk whose offsets
// overlap an already-kept chunk by more than the ratio of the smaller span.
// The higher-ranked chunk always wins.
func dedupByOverlap(results []vectordb.SearchResult, ratio float64) []Evidence {
	kept := make([]Evidence, 0, len(results))

	for _, result := range results {
		candidate := Evidence{
			ChunkID:    result.Entry.ID,
			DocumentID: result.Entry.DocumentID,
			Section:    result.Entry.Section,
			Start:      result.Entry.Start,
			End:        result.Entry.End,
			Text:       result.Entry.Text,
			Score:      float64(result.Score),
		}

		duplicate := false
		for _, existing := range kept {
			if existing.DocumentID == candidate.DocumentID &&
				overlapRatio(existing.Start, existing.End, candidate.Start, candidate.End) > ratio {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}

	return kept
}

// overlapRatio returns the shared length of two ranges divided by the
// length of the smaller range.
func overlapRatio(aStart, aEnd, bStart, bEnd int) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}

	smaller := aEnd - aStart
	if bEnd-bStart < smaller {
		smaller = bEnd - bStart
	}
	if smaller <= 0 {
		return 0
	}
	return float64(hi-lo) / float64(smaller)
}
