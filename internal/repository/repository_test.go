package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sheorananshul/contract-analyzer/internal/database"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// setupTestDB opens a fresh in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestDocumentRepositoryLifecycle(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	doc := &models.DocumentRecord{
		ID:          "doc-1",
		Name:        "msa.txt",
		StoragePath: "contracts/doc-1.txt",
		Status:      models.DocStatusUploaded,
	}
	require.NoError(t, repo.Create(doc))

	got, err := repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "msa.txt", got.Name)
	assert.Equal(t, models.DocStatusUploaded, got.Status)
	assert.False(t, got.UploadedAt.IsZero())

	require.NoError(t, repo.UpdateStatus("doc-1", models.DocStatusIndexing, ""))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusIndexing, got.Status)

	require.NoError(t, repo.SetIndexed("doc-1", 42))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusIndexed, got.Status)
	assert.Equal(t, 42, got.ChunkCount)
	require.NotNil(t, got.IndexedAt)
}

func TestDocumentRepositoryNotFound(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestDocumentRepositoryRejectsEmptyID(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	err := repo.Create(&models.DocumentRecord{Name: "x"})
	assert.Error(t, err)
}

func TestDocumentRepositoryList(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, repo.Create(&models.DocumentRecord{
			ID:          id,
			Name:        id + ".txt",
			StoragePath: "contracts/" + id,
			Status:      models.DocStatusUploaded,
			UploadedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	docs, total, err := repo.List(0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, docs, 2)
	assert.Equal(t, "d3", docs[0].ID, "newest first")
	assert.Equal(t, "d2", docs[1].ID)

	require.NoError(t, repo.Delete("d3"))
	_, total, err = repo.List(0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestAnalysisRepositoryRunLifecycle(t *testing.T) {
	repo := NewAnalysisRepositoryWithDB(setupTestDB(t))

	run := &models.AnalysisRun{
		ID:           "run-1",
		DocumentID:   "doc-1",
		Status:       models.RunStatusRunning,
		Requirements: 5,
	}
	require.NoError(t, repo.CreateRun(run))

	got, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, repo.CompleteRun("run-1", models.RunStatusPartial, 2, ""))
	got, err = repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, got.Status)
	assert.Equal(t, 2, got.Failed)
	require.NotNil(t, got.CompletedAt)
}

func TestAnalysisRepositoryRunNotFound(t *testing.T) {
	repo := NewAnalysisRepositoryWithDB(setupTestDB(t))

	_, err := repo.GetRun("missing")
	assert.ErrorIs(t, err, models.ErrRunNotFound)

	err = repo.CompleteRun("missing", models.RunStatusCompleted, 0, "")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestAnalysisRepositoryListRuns(t *testing.T) {
	repo := NewAnalysisRepositoryWithDB(setupTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"r1", "r2"} {
		require.NoError(t, repo.CreateRun(&models.AnalysisRun{
			ID:         id,
			DocumentID: "doc-1",
			Status:     models.RunStatusCompleted,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.CreateRun(&models.AnalysisRun{
		ID:         "other",
		DocumentID: "doc-2",
		Status:     models.RunStatusCompleted,
	}))

	runs, total, err := repo.ListRuns("doc-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID, "newest first")
}

func TestAnalysisRepositoryFindings(t *testing.T) {
	repo := NewAnalysisRepositoryWithDB(setupTestDB(t))

	require.NoError(t, repo.CreateRun(&models.AnalysisRun{
		ID:         "run-1",
		DocumentID: "doc-1",
		Status:     models.RunStatusRunning,
	}))

	records := []*models.FindingRecord{
		{RunID: "run-1", RequirementID: "REQ-1", Status: models.StatusCompliant, Confidence: 0.9, Band: "high"},
		{RunID: "run-1", RequirementID: "REQ-2", Status: models.StatusInsufficientEvidence, Confidence: 0.1, Band: "insufficient"},
	}
	require.NoError(t, repo.SaveFindings(records))
	require.NoError(t, repo.SaveFindings(nil), "empty batch is a no-op")

	got, err := repo.GetFindings("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "REQ-1", got[0].RequirementID, "insertion order preserved")
	assert.Equal(t, "REQ-2", got[1].RequirementID)
	assert.Equal(t, models.StatusCompliant, got[0].Status)
}
