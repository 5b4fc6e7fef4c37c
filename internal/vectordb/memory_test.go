package vectordb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := NewMemoryRepository(Config{
		Type:           "memory",
		Dimension:      3,
		DistanceType:   Cosine,
		EmbeddingModel: "test-embed",
	})
	require.NoError(t, err)
	return repo
}

func entry(id, docID string, vector []float32) Entry {
	return Entry{ID: id, DocumentID: docID, Text: "text " + id, Vector: vector}
}

func TestMemoryRepositoryAddAndGet(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Add(entry("c1", "doc1", []float32{1, 0, 0})))

	got, err := repo.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "doc1", got.DocumentID)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestMemoryRepositoryValidation(t *testing.T) {
	repo := newTestRepo(t)

	t.Run("WrongDimension", func(t *testing.T) {
		err := repo.Add(entry("c1", "doc1", []float32{1, 0}))
		require.Error(t, err)
	})

	t.Run("EmptyVector", func(t *testing.T) {
		err := repo.Add(entry("c1", "doc1", nil))
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("EmptyID", func(t *testing.T) {
		err := repo.Add(entry("", "doc1", []float32{1, 0, 0}))
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func TestMemoryRepositorySearchRanking(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AddBatch([]Entry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{0.9, 0.1, 0}),
		entry("c3", "doc1", []float32{0, 1, 0}),
	}))

	results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{MaxResults: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "c1", results[0].Entry.ID)
	assert.Equal(t, "c2", results[1].Entry.ID)
	assert.Equal(t, "c3", results[2].Entry.ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.Greater(t, results[0].Score, results[2].Score)
}

func TestMemoryRepositorySearchTieBreak(t *testing.T) {
	repo := newTestRepo(t)

	// Identical vectors produce identical scores; order must fall back to
	// ascending entry ID on every run.
	require.NoError(t, repo.AddBatch([]Entry{
		entry("c3", "doc1", []float32{1, 0, 0}),
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{1, 0, 0}),
	}))

	for i := 0; i < 5; i++ {
		results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{MaxResults: 3})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "c1", results[0].Entry.ID)
		assert.Equal(t, "c2", results[1].Entry.ID)
		assert.Equal(t, "c3", results[2].Entry.ID)
	}
}

func TestMemoryRepositorySearchFilters(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AddBatch([]Entry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc2", []float32{0.9, 0.1, 0}),
		entry("c3", "doc1", []float32{0, 0, 1}),
	}))

	t.Run("MinScore", func(t *testing.T) {
		results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{MinScore: 0.5, MaxResults: 10})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, float32(0.5))
		}
	})

	t.Run("DocumentID", func(t *testing.T) {
		results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{DocumentIDs: []string{"doc2"}, MaxResults: 10})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "c2", results[0].Entry.ID)
	})

	t.Run("MaxResults", func(t *testing.T) {
		results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{MaxResults: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("NoMatches", func(t *testing.T) {
		results, err := repo.Search([]float32{1, 0, 0}, SearchFilter{DocumentIDs: []string{"absent"}, MaxResults: 10})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestMemoryRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AddBatch([]Entry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{0, 1, 0}),
		entry("c3", "doc2", []float32{0, 0, 1}),
	}))

	require.NoError(t, repo.Delete("c1"))
	_, err := repo.Get("c1")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	require.NoError(t, repo.DeleteByDocumentID("doc1"))
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// deleting an absent document is a no-op
	assert.NoError(t, repo.DeleteByDocumentID("doc1"))
}

func TestMemoryRepositoryPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	config := Config{
		Type:           "memory",
		Path:           path,
		Dimension:      3,
		DistanceType:   Cosine,
		EmbeddingModel: "test-embed",
	}

	repo, err := NewMemoryRepository(config)
	require.NoError(t, err)
	require.NoError(t, repo.AddBatch([]Entry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{0, 1, 0}),
	}))
	require.NoError(t, repo.Close())

	reloaded, err := NewMemoryRepository(config)
	require.NoError(t, err)
	count, err := reloaded.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := reloaded.Search([]float32{1, 0, 0}, SearchFilter{MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Entry.ID)
}

func TestMemoryRepositoryManifestMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	repo, err := NewMemoryRepository(Config{
		Type:           "memory",
		Path:           path,
		Dimension:      3,
		DistanceType:   Cosine,
		EmbeddingModel: "model-a",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Add(entry("c1", "doc1", []float32{1, 0, 0})))
	require.NoError(t, repo.Close())

	t.Run("DifferentModel", func(t *testing.T) {
		_, err := NewMemoryRepository(Config{
			Type:           "memory",
			Path:           path,
			Dimension:      3,
			DistanceType:   Cosine,
			EmbeddingModel: "model-b",
		})
		require.Error(t, err)
		var cerr *IndexConsistencyError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "embedding_model", cerr.Field)
	})

	t.Run("DifferentMetric", func(t *testing.T) {
		_, err := NewMemoryRepository(Config{
			Type:           "memory",
			Path:           path,
			Dimension:      3,
			DistanceType:   Euclidean,
			EmbeddingModel: "model-a",
		})
		require.Error(t, err)
		var cerr *IndexConsistencyError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "distance_type", cerr.Field)
	})
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, float64(DistanceToScore(0, Cosine)), 1e-6)
	assert.InDelta(t, 0.0, float64(DistanceToScore(1, Cosine)), 1e-6)
	assert.InDelta(t, 1.0, float64(DistanceToScore(1, DotProduct)), 1e-6)
	assert.InDelta(t, 1.0, float64(DistanceToScore(0, Euclidean)), 1e-6)
	assert.Greater(t, DistanceToScore(0.5, Euclidean), DistanceToScore(2.0, Euclidean))
}
