package repository

import "github.com/sheorananshul/contract-analyzer/internal/models"

// DocumentRepository stores metadata of uploaded contracts.
type DocumentRepository interface {
	// Create inserts a new document record
	Create(doc *models.DocumentRecord) error

	// GetByID returns a document by ID
	GetByID(id string) (*models.DocumentRecord, error)

	// List returns documents ordered by upload time, newest first
	List(offset, limit int) ([]*models.DocumentRecord, int64, error)

	// UpdateStatus moves a document through its indexing lifecycle
	UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error

	// SetIndexed marks a document indexed and records its chunk count
	SetIndexed(id string, chunkCount int) error

	// Delete removes a document record
	Delete(id string) error
}

// AnalysisRepository stores runs and their findings.
// Findings are written once per requirement per run and never updated.
type AnalysisRepository interface {
	// CreateRun inserts a new run record
	CreateRun(run *models.AnalysisRun) error

	// GetRun returns a run by ID
	GetRun(id string) (*models.AnalysisRun, error)

	// ListRuns returns the runs over one document, newest first
	ListRuns(documentID string, offset, limit int) ([]*models.AnalysisRun, int64, error)

	// CompleteRun finalizes a run's status and failure count
	CompleteRun(id string, status models.RunStatus, failed int, errorMsg string) error

	// SaveFindings inserts the findings of one run in a single transaction
	SaveFindings(records []*models.FindingRecord) error

	// GetFindings returns a run's findings in insertion order
	GetFindings(runID string) ([]*models.FindingRecord, error)
}
