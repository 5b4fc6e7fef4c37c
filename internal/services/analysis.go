package services

import (
	"context"
	"fmt"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/evaluator"
	"github.com/sheorananshul/contract-analyzer/internal/evidence"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/report"
	"github.com/sheorananshul/contract-analyzer/internal/repository"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
)

// AnalysisService runs compliance checks over indexed contracts. Each run
// evaluates every requirement of a set against one document and persists
// the findings.
type AnalysisService struct {
	docs        *DocumentService
	retriever   *retriever.Retriever
	aggregator  *evidence.Aggregator
	evaluator   *evaluator.Evaluator
	runs        repository.AnalysisRepository
	logger      *logrus.Logger
	concurrency int
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithConcurrency sets how many requirements are evaluated in parallel.
func WithConcurrency(n int) AnalysisOption {
	return func(s *AnalysisService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithAnalysisLogger sets the service logger.
func WithAnalysisLogger(logger *logrus.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(
	docs *DocumentService,
	ret *retriever.Retriever,
	agg *evidence.Aggregator,
	eval *evaluator.Evaluator,
	runs repository.AnalysisRepository,
	opts ...AnalysisOption,
) *AnalysisService {
	service := &AnalysisService{
		docs:        docs,
		retriever:   ret,
		aggregator:  agg,
		evaluator:   eval,
		runs:        runs,
		logger:      logrus.New(),
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// RunResult is the outcome of one analysis run.
type RunResult struct {
	RunID      string           `json:"run_id"`
	DocumentID string           `json:"document_id"`
	Status     models.RunStatus `json:"status"`
	Findings   []models.Finding `json:"findings"`
	Summary    report.Summary   `json:"summary"`
}

// AnalyzeDocument evaluates every requirement of the set against an
// indexed document. Requirements run in parallel; one failing requirement
// downgrades the run to partial instead of aborting it. Findings come
// back in the set's declaration order.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, documentID string, set *standards.Set) (*RunResult, error) {
	record, err := s.docs.Get(documentID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.DocStatusIndexed {
		return nil, fmt.Errorf("document %s (status %s): %w", documentID, record.Status, models.ErrDocumentNotIndexed)
	}

	doc, err := s.docs.Load(documentID)
	if err != nil {
		return nil, err
	}

	run := &models.AnalysisRun{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		Status:       models.RunStatusRunning,
		Requirements: len(set.Requirements),
	}
	if err := s.runs.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":       run.ID,
		"document_id":  documentID,
		"requirements": len(set.Requirements),
	}).Info("Analysis run started")

	// each worker writes only its own slot, so the slice needs no lock
	findings := make([]models.Finding, len(set.Requirements))
	wp := workerpool.New(s.concurrency)
	for i, req := range set.Requirements {
		i, req := i, req
		wp.Submit(func() {
			findings[i] = s.evaluateOne(ctx, doc, req)
		})
	}
	wp.StopWait()

	failed := 0
	for _, f := range findings {
		if f.Error != "" {
			failed++
		}
	}

	if err := s.runs.SaveFindings(findingsToRecords(run.ID, findings)); err != nil {
		_ = s.runs.CompleteRun(run.ID, models.RunStatusFailed, failed, err.Error())
		return nil, fmt.Errorf("failed to persist findings: %w", err)
	}

	status := models.RunStatusCompleted
	switch {
	case failed == len(findings) && len(findings) > 0:
		status = models.RunStatusFailed
	case failed > 0:
		status = models.RunStatusPartial
	}
	if err := s.runs.CompleteRun(run.ID, status, failed, ""); err != nil {
		return nil, fmt.Errorf("failed to finalize run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"status": status,
		"failed": failed,
	}).Info("Analysis run finished")

	return &RunResult{
		RunID:      run.ID,
		DocumentID: documentID,
		Status:     status,
		Findings:   findings,
		Summary:    report.Summarize(findings),
	}, nil
}

// EvaluateRequirement runs the retrieve, merge, evaluate pipeline for one
// requirement against an indexed document.
func (s *AnalysisService) EvaluateRequirement(ctx context.Context, documentID string, req models.Requirement) (models.Finding, error) {
	doc, err := s.docs.Load(documentID)
	if err != nil {
		return models.Finding{}, err
	}
	return s.evaluateOne(ctx, doc, req), nil
}

// evaluateOne produces the finding for one requirement. It never returns
// an error: retrieval failures and rejected model output both degrade to
// an insufficient_evidence finding with the Error field set.
func (s *AnalysisService) evaluateOne(ctx context.Context, doc *document.Document, req models.Requirement) models.Finding {
	if err := ctx.Err(); err != nil {
		return s.failedFinding(req, err)
	}

	items, err := s.retriever.Retrieve(ctx, req, doc.ID)
	if err != nil {
		s.logger.WithError(err).WithField("requirement_id", req.ID).Warn("Retrieval failed")
		return s.failedFinding(req, err)
	}

	spans := s.aggregator.Merge(doc.Text, items)
	stats := evidence.ComputeStats(req, spans)

	finding, err := s.evaluator.Evaluate(ctx, req, items, spans, stats)
	if err != nil {
		// the finding is already downgraded, the violation is only logged
		s.logger.WithError(err).WithField("requirement_id", req.ID).Warn("Model output rejected")
	}
	return finding
}

// failedFinding records a requirement the pipeline could not evaluate.
func (s *AnalysisService) failedFinding(req models.Requirement, err error) models.Finding {
	return models.Finding{
		RequirementID: req.ID,
		Status:        models.StatusInsufficientEvidence,
		Quotes:        []models.Quote{},
		Band:          "insufficient",
		Error:         err.Error(),
	}
}

// GetRun returns a persisted run and its findings.
func (s *AnalysisService) GetRun(runID string) (*models.AnalysisRun, []models.Finding, error) {
	run, err := s.runs.GetRun(runID)
	if err != nil {
		return nil, nil, err
	}

	records, err := s.runs.GetFindings(runID)
	if err != nil {
		return nil, nil, err
	}

	findings, err := recordsToFindings(records)
	if err != nil {
		return nil, nil, err
	}
	return run, findings, nil
}

// ListRuns returns the runs over one document, newest first.
func (s *AnalysisService) ListRuns(documentID string, offset, limit int) ([]*models.AnalysisRun, int64, error) {
	return s.runs.ListRuns(documentID, offset, limit)
}

// BuildReport renders a persisted run against its requirement set.
func (s *AnalysisService) BuildReport(runID string, set *standards.Set) ([]report.Row, report.Summary, error) {
	_, findings, err := s.GetRun(runID)
	if err != nil {
		return nil, report.Summary{}, err
	}
	return report.Build(set, findings), report.Summarize(findings), nil
}
