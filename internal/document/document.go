package document

import (
	"fmt"
	"strings"
)

// SectionBoundary marks the start of a labeled section inside a document.
// Boundaries are produced by the external ingestion collaborator alongside
// the normalized text.
type SectionBoundary struct {
	Offset int    `json:"offset"` // byte offset where the section starts
	Label  string `json:"label"`  // heading label, e.g. "Section 6.7"
}

// Document is the immutable normalized text of one ingested contract.
// It is created once at ingestion and never mutated; chunk offsets always
// refer to Text exactly, which is what makes quotes traceable.
type Document struct {
	ID         string
	Text       string
	Boundaries []SectionBoundary
}

// NewDocument validates the ingestion input and builds a document.
// Boundaries must be strictly increasing and inside the text; overlapping
// or out-of-range section markers are a ChunkingError because no consistent
// chunking can be derived from them.
func NewDocument(id, text string, boundaries []SectionBoundary) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewChunkingError("document text is empty")
	}

	prev := -1
	for i, b := range boundaries {
		if b.Offset < 0 || b.Offset >= len(text) {
			return nil, NewChunkingError("boundary %d offset %d out of range [0, %d)", i, b.Offset, len(text))
		}
		if b.Offset <= prev {
			return nil, NewChunkingError("boundary %d offset %d not after previous offset %d", i, b.Offset, prev)
		}
		prev = b.Offset
	}

	return &Document{ID: id, Text: text, Boundaries: boundaries}, nil
}

// Chunk is a contiguous labeled span of document text, the unit of
// retrieval. Consecutive chunks overlap by design; Text is always the
// exact substring Document.Text[Start:End].
type Chunk struct {
	ID         string                 // unique chunk identifier
	DocumentID string                 // owning document
	Index      int                    // position in chunk order
	Start      int                    // start offset into the document text
	End        int                    // end offset (exclusive)
	Section    string                 // label inherited from the nearest preceding heading
	Text       string                 // verbatim span text
	PrevID     string                 // overlapping predecessor, if any
	NextID     string                 // overlapping successor, if any
	Metadata   map[string]interface{} // additional metadata
}

// TokenCount approximates the token length of a text as its
// whitespace-separated word count. Both chunk sizing and coverage
// statistics use the same approximation so thresholds stay comparable.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}

// ChunkingError reports malformed input text or inconsistent section
// boundaries. Recoverable by re-ingesting the document.
type ChunkingError struct {
	Reason string
}

// Error implements the error interface.
func (e *ChunkingError) Error() string {
	return "chunking error: " + e.Reason
}

// NewChunkingError creates a chunking error.
func NewChunkingError(format string, args ...interface{}) *ChunkingError {
	return &ChunkingError{Reason: fmt.Sprintf(format, args...)}
}
