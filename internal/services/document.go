package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/embedding"
	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/repository"
	"github.com/sheorananshul/contract-analyzer/internal/vectordb"
	"github.com/sheorananshul/contract-analyzer/pkg/storage"
)

// DocumentService manages the contract lifecycle: upload, chunking,
// embedding, and indexing. It owns the vector index instance; nothing
// else writes to it.
type DocumentService struct {
	storage storage.Storage
	repo    repository.DocumentRepository
	chunker *document.Chunker
	batcher *embedding.BatchProcessor
	index   vectordb.Repository
	logger  *logrus.Logger
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// WithDocumentLogger sets the service logger.
func WithDocumentLogger(logger *logrus.Logger) DocumentOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// NewDocumentService creates the document service.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	chunker *document.Chunker,
	batcher *embedding.BatchProcessor,
	index vectordb.Repository,
	opts ...DocumentOption,
) *DocumentService {
	service := &DocumentService{
		storage: store,
		repo:    repo,
		chunker: chunker,
		batcher: batcher,
		index:   index,
		logger:  logrus.New(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Upload validates and stores a contract's text and section boundaries.
// The document is not queryable until Index is called.
func (s *DocumentService) Upload(ctx context.Context, name, text string, boundaries []document.SectionBoundary) (*models.DocumentRecord, error) {
	if name == "" {
		return nil, errors.New("document name cannot be empty")
	}

	id := uuid.New().String()

	// validates the text and boundary invariants before anything is stored
	if _, err := document.NewDocument(id, text, boundaries); err != nil {
		return nil, err
	}

	info, err := s.storage.Save(id, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to store document text: %w", err)
	}

	boundaryJSON, err := json.Marshal(boundaries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boundaries: %w", err)
	}

	record := &models.DocumentRecord{
		ID:          id,
		Name:        name,
		StoragePath: info.Path,
		Status:      models.DocStatusUploaded,
		Boundaries:  datatypes.JSON(boundaryJSON),
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": id,
		"name":        name,
		"bytes":       info.Size,
	}).Info("Document uploaded")

	return record, nil
}

// Index chunks the document, embeds every chunk, and loads the vectors
// into the index. Reindexing replaces the document's previous entries.
func (s *DocumentService) Index(ctx context.Context, documentID string) (int, error) {
	doc, err := s.Load(documentID)
	if err != nil {
		return 0, err
	}

	if err := s.repo.UpdateStatus(documentID, models.DocStatusIndexing, ""); err != nil {
		return 0, err
	}

	count, err := s.indexDocument(ctx, doc)
	if err != nil {
		if statusErr := s.repo.UpdateStatus(documentID, models.DocStatusFailed, err.Error()); statusErr != nil {
			s.logger.WithError(statusErr).Warn("Failed to record indexing failure")
		}
		return 0, err
	}

	if err := s.repo.SetIndexed(documentID, count); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": documentID,
		"chunks":      count,
	}).Info("Document indexed")

	return count, nil
}

// indexDocument runs the chunk, embed, insert pipeline for one document.
func (s *DocumentService) indexDocument(ctx context.Context, doc *document.Document) (int, error) {
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return 0, fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		return 0, errors.New("document produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.batcher.Process(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}

	// vectors come back in submission order, so entry i belongs to chunk i
	entries := make([]vectordb.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectordb.Entry{
			ID:         chunk.ID,
			DocumentID: chunk.DocumentID,
			Section:    chunk.Section,
			Start:      chunk.Start,
			End:        chunk.End,
			Text:       chunk.Text,
			Vector:     vectors[i],
		}
	}

	// reindexing must not leave stale entries behind
	if err := s.index.DeleteByDocumentID(doc.ID); err != nil {
		return 0, fmt.Errorf("failed to clear previous entries: %w", err)
	}
	if err := s.index.AddBatch(entries); err != nil {
		return 0, fmt.Errorf("failed to index entries: %w", err)
	}
	if err := s.index.Persist(); err != nil {
		return 0, fmt.Errorf("failed to persist index: %w", err)
	}

	return len(chunks), nil
}

// Load reassembles the in-memory document from storage and its record.
func (s *DocumentService) Load(documentID string) (*document.Document, error) {
	record, err := s.repo.GetByID(documentID)
	if err != nil {
		return nil, err
	}

	rc, err := s.storage.Get(documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to open document text: %w", err)
	}
	defer rc.Close()

	text, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read document text: %w", err)
	}

	var boundaries []document.SectionBoundary
	if len(record.Boundaries) > 0 {
		if err := json.Unmarshal(record.Boundaries, &boundaries); err != nil {
			return nil, fmt.Errorf("failed to decode boundaries: %w", err)
		}
	}

	return document.NewDocument(documentID, string(text), boundaries)
}

// Get returns a document's metadata record.
func (s *DocumentService) Get(documentID string) (*models.DocumentRecord, error) {
	return s.repo.GetByID(documentID)
}

// List returns document records, newest first.
func (s *DocumentService) List(offset, limit int) ([]*models.DocumentRecord, int64, error) {
	return s.repo.List(offset, limit)
}

// Delete removes a document from the index, storage, and the database.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.repo.GetByID(documentID); err != nil {
		return err
	}

	if err := s.index.DeleteByDocumentID(documentID); err != nil {
		return fmt.Errorf("failed to remove index entries: %w", err)
	}

	if err := s.storage.Delete(documentID); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("failed to remove document text: %w", err)
	}

	if err := s.repo.Delete(documentID); err != nil {
		return err
	}

	s.logger.WithField("document_id", documentID).Info("Document deleted")
	return nil
}
