package models

import "fmt"

// Status is the closed set of compliance verdicts a finding can carry.
// Anything outside this set coming back from an external evaluator is a
// schema violation, never silently coerced.
type Status string

const (
	// StatusCompliant - every control is covered by verbatim evidence
	StatusCompliant Status = "compliant"
	// StatusNonCompliant - no control is covered
	StatusNonCompliant Status = "non_compliant"
	// StatusPartial - some but not all controls are covered
	StatusPartial Status = "partial"
	// StatusInsufficientEvidence - retrieval produced nothing usable, or
	// the evaluator response failed validation
	StatusInsufficientEvidence Status = "insufficient_evidence"
)

// ParseStatus maps a raw string onto the closed status enum.
// Unknown values are an error, not a default.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCompliant, StatusNonCompliant, StatusPartial, StatusInsufficientEvidence:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown compliance status: %q", s)
}

// Quote is a verbatim excerpt cited as evidence for a finding.
// Text is always an exact substring (modulo whitespace normalization)
// of the evidence span it was validated against.
type Quote struct {
	ChunkID string `json:"chunk_id"` // chunk the quote was cited from
	Section string `json:"section"`  // section label of the source span
	Text    string `json:"text"`     // the verbatim excerpt
}

// CoverageSummary carries the retrieval statistics a finding was scored on.
type CoverageSummary struct {
	Spans          int     `json:"spans"`           // merged evidence spans
	Sections       int     `json:"sections"`        // distinct section labels represented
	EvidenceTokens int     `json:"evidence_tokens"` // total evidence token count
	MeanSimilarity float64 `json:"mean_similarity"` // mean retrieval similarity
	TopSimilarity  float64 `json:"top_similarity"`  // best retrieval similarity
}

// Finding is the per-requirement result of a compliance run.
// A finding is created once and never mutated afterwards.
type Finding struct {
	RequirementID   string          `json:"requirement_id"`
	Status          Status          `json:"status"`
	Quotes          []Quote         `json:"quotes"`
	Confidence      float64         `json:"confidence"` // always strictly below the configured cap
	Band            string          `json:"band"`       // confidence band label
	Coverage        CoverageSummary `json:"coverage"`
	Rationale       string          `json:"rationale,omitempty"`
	Gaps            []string        `json:"gaps,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Error           string          `json:"error,omitempty"` // set when evaluation failed and was downgraded
}
