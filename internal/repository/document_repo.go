package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sheorananshul/contract-analyzer/internal/database"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// docRepository is the GORM-backed document repository.
type docRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a document repository on the global connection.
func NewDocumentRepository() DocumentRepository {
	return &docRepository{db: database.MustDB()}
}

// NewDocumentRepositoryWithDB creates a document repository on a specific connection.
func NewDocumentRepositoryWithDB(db *gorm.DB) DocumentRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &docRepository{db: db}
}

// Create inserts a new document record.
func (r *docRepository) Create(doc *models.DocumentRecord) error {
	if doc.ID == "" {
		return errors.New("document ID cannot be empty")
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	return r.db.Create(doc).Error
}

// GetByID returns a document by ID.
func (r *docRepository) GetByID(id string) (*models.DocumentRecord, error) {
	var doc models.DocumentRecord
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// List returns documents ordered by upload time, newest first.
func (r *docRepository) List(offset, limit int) ([]*models.DocumentRecord, int64, error) {
	var docs []*models.DocumentRecord
	var total int64

	query := r.db.Model(&models.DocumentRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// UpdateStatus moves a document through its indexing lifecycle.
func (r *docRepository) UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	return r.db.Model(&models.DocumentRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetIndexed marks a document indexed and records its chunk count.
func (r *docRepository) SetIndexed(id string, chunkCount int) error {
	now := time.Now()
	return r.db.Model(&models.DocumentRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.DocStatusIndexed,
			"chunk_count": chunkCount,
			"indexed_at":  &now,
			"error":       "",
		}).Error
}

// Delete removes a document record.
func (r *docRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.DocumentRecord{}).Error
}
