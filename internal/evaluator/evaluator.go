package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/llm"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
	"github.com/sheorananshul/contract-analyzer/internal/scorer"
)

// EvidenceViolation reports a model response that failed validation: bad
// schema, an unknown status, or a quote that is not verbatim in its chunk.
// The finding is downgraded to insufficient evidence, never trusted.
type EvidenceViolation struct {
	RequirementID string
	Reason        string
}

// Error implements the error interface.
func (e *EvidenceViolation) Error() string {
	return fmt.Sprintf("evidence violation for requirement %s: %s", e.RequirementID, e.Reason)
}

// Evaluator turns retrieved evidence into a compliance finding. The model
// only decides coverage and cites quotes; status and confidence are always
// recomputed locally from validated data.
type Evaluator struct {
	client  llm.Client
	weights scorer.Weights
	timeout time.Duration
}

// New creates an evaluator, validating the scoring weights.
func New(client llm.Client, weights scorer.Weights, timeout time.Duration) (*Evaluator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Evaluator{client: client, weights: weights, timeout: timeout}, nil
}

// Evaluate produces the finding for one requirement.
//
// With no evidence the verdict is insufficient_evidence without consulting
// the model. When the model responds, its output is validated quote by
// quote; any violation downgrades the finding and is also returned as an
// *EvidenceViolation so the caller can log it. The returned finding is
// always usable.
func (e *Evaluator) Evaluate(ctx context.Context, req models.Requirement, items []retriever.Evidence, spans []evidence.Span, stats evidence.Stats) (models.Finding, error) {
	if len(items) == 0 {
		return e.insufficientFinding(req, stats,
			"no evidence chunks cleared the similarity floor", ""), nil
	}

	// a requirement without structured controls is checked as one implicit
	// control named after itself
	if len(req.Controls) == 0 {
		req.Controls = []string{req.Name}
	}

	prompt := buildPrompt(req, items)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Generate(callCtx, prompt, llm.WithJSONOutput())
	if err != nil {
		violation := &EvidenceViolation{RequirementID: req.ID, Reason: fmt.Sprintf("model call failed: %v", err)}
		return e.insufficientFinding(req, stats, "", violation.Reason), violation
	}

	verdict, err := parseVerdict(resp.Text, req, items)
	if err != nil {
		violation := &EvidenceViolation{RequirementID: req.ID, Reason: err.Error()}
		return e.insufficientFinding(req, stats, "", violation.Reason), violation
	}

	signal := scorer.Signal{
		Status:             verdict.Status,
		CoveredRatio:       verdict.CoveredRatio,
		QuoteCount:         len(verdict.Quotes),
		ContradictionCount: verdict.Contradictions,
	}
	score := scorer.Score(stats, signal, e.weights)

	return models.Finding{
		RequirementID:   req.ID,
		Status:          verdict.Status,
		Quotes:          verdict.Quotes,
		Confidence:      score,
		Band:            scorer.Band(score, e.weights),
		Coverage:        evidence.Summary(stats),
		Rationale:       verdict.Rationale,
		Gaps:            verdict.Gaps,
		Recommendations: verdict.Recommendations,
	}, nil
}

// insufficientFinding builds the downgraded verdict used whenever the
// pipeline cannot produce a validated one.
func (e *Evaluator) insufficientFinding(req models.Requirement, stats evidence.Stats, rationale, errText string) models.Finding {
	signal := scorer.Signal{Status: models.StatusInsufficientEvidence}
	score := scorer.Score(stats, signal, e.weights)

	return models.Finding{
		RequirementID: req.ID,
		Status:        models.StatusInsufficientEvidence,
		Quotes:        []models.Quote{},
		Confidence:    score,
		Band:          scorer.Band(score, e.weights),
		Coverage:      evidence.Summary(stats),
		Rationale:     rationale,
		Error:         errText,
	}
}
