package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sheorananshul/contract-analyzer/internal/database"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// analysisRepository is the GORM-backed run and finding repository.
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates an analysis repository on the global connection.
func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{db: database.MustDB()}
}

// NewAnalysisRepositoryWithDB creates an analysis repository on a specific connection.
func NewAnalysisRepositoryWithDB(db *gorm.DB) AnalysisRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &analysisRepository{db: db}
}

// CreateRun inserts a new run record.
func (r *analysisRepository) CreateRun(run *models.AnalysisRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	return r.db.Create(run).Error
}

// GetRun returns a run by ID.
func (r *analysisRepository) GetRun(id string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the runs over one document, newest first.
func (r *analysisRepository) ListRuns(documentID string, offset, limit int) ([]*models.AnalysisRun, int64, error) {
	var runs []*models.AnalysisRun
	var total int64

	query := r.db.Model(&models.AnalysisRun{}).Where("document_id = ?", documentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

// CompleteRun finalizes a run's status and failure count.
func (r *analysisRepository) CompleteRun(id string, status models.RunStatus, failed int, errorMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"failed":       failed,
		"completed_at": &now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	result := r.db.Model(&models.AnalysisRun{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRunNotFound
	}
	return nil
}

// SaveFindings inserts the findings of one run in a single transaction.
func (r *analysisRepository) SaveFindings(records []*models.FindingRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, 100).Error
	})
}

// GetFindings returns a run's findings in insertion order.
func (r *analysisRepository) GetFindings(runID string) ([]*models.FindingRecord, error) {
	var records []*models.FindingRecord
	err := r.db.Where("run_id = ?", runID).
		Order("id ASC").
		Find(&records).Error
	return records, err
}
