//go:build faiss

package vectordb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DataIntelligenceCrew/go-faiss"
)

// FaissRepository is the Faiss-backed vector index for larger corpora.
// The index file is paired with a .meta.json carrying the entries and the
// manifest; loading an index whose manifest disagrees with the configured
// identity fails with an IndexConsistencyError.
type FaissRepository struct {
	mu             sync.RWMutex
	index          faiss.Index
	entries        map[string]Entry
	docToEntries   map[string][]string
	idToPosition   map[string]int
	indexPath      string
	metaPath       string
	dimension      int
	distanceType   DistanceType
	manifest       Manifest
	saveOnClose    bool
	autoSave       bool
	autoSaveCount  int
	operationCount int
}

// NewFaissRepository creates a Faiss vector index.
func NewFaissRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	if config.Path != "" && !config.InMemory {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %v", err)
		}
	}

	distType := config.DistanceType
	if distType == "" {
		distType = Cosine
	}

	indexPath := config.Path
	metaPath := ""
	if indexPath != "" {
		metaPath = indexPath + ".meta.json"
	}

	repo := &FaissRepository{
		entries:      make(map[string]Entry),
		docToEntries: make(map[string][]string),
		idToPosition: make(map[string]int),
		indexPath:    indexPath,
		metaPath:     metaPath,
		dimension:    config.Dimension,
		distanceType: distType,
		manifest: Manifest{
			EmbeddingModel: config.EmbeddingModel,
			Dimension:      config.Dimension,
			DistanceType:   distType,
		},
		saveOnClose:   true,
		autoSave:      true,
		autoSaveCount: 100,
	}

	var index faiss.Index
	var err error

	if indexPath != "" && !config.InMemory && fileExists(indexPath) {
		index, err = faiss.ReadIndex(indexPath, 0)
		if err != nil {
			if config.CreateIfNotExists {
				index, err = createFaissIndex(config.Dimension, distType)
				if err != nil {
					return nil, fmt.Errorf("failed to create Faiss index: %v", err)
				}
			} else {
				return nil, fmt.Errorf("failed to read index file: %v", err)
			}
		} else {
			if err := repo.loadMetadata(metaPath); err != nil {
				return nil, err
			}
		}
	} else {
		index, err = createFaissIndex(config.Dimension, distType)
		if err != nil {
			return nil, fmt.Errorf("failed to create Faiss index: %v", err)
		}
	}

	repo.index = index
	return repo, nil
}

// createFaissIndex creates a flat Faiss index for the metric.
func createFaissIndex(dimension int, distType DistanceType) (faiss.Index, error) {
	var metric int
	switch distType {
	case Cosine, DotProduct:
		metric = faiss.MetricInnerProduct
	case Euclidean:
		metric = faiss.MetricL2
	default:
		metric = faiss.MetricL2
	}
	return faiss.NewIndexFlat(dimension, metric)
}

// Add indexes a single entry.
func (r *FaissRepository) Add(entry Entry) error {
	if err := ValidateVector(entry.Vector, r.dimension); err != nil {
		return err
	}
	if entry.ID == "" {
		return ErrInvalidID
	}
	if r.distanceType == Cosine {
		entry.Vector = normalizeVector(entry.Vector)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nextPos := int(r.index.Ntotal())
	if err := r.index.Add(entry.Vector); err != nil {
		return fmt.Errorf("failed to add vector to index: %v", err)
	}

	r.entries[entry.ID] = entry
	r.idToPosition[entry.ID] = nextPos
	r.docToEntries[entry.DocumentID] = append(r.docToEntries[entry.DocumentID], entry.ID)
	r.operationCount++

	if r.autoSave && r.operationCount >= r.autoSaveCount {
		if err := r.saveIndex(); err != nil {
			return fmt.Errorf("auto-save failed: %v", err)
		}
		r.operationCount = 0
	}
	return nil
}

// AddBatch indexes entries in order.
func (r *FaissRepository) AddBatch(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if err := ValidateVector(entries[i].Vector, r.dimension); err != nil {
			return fmt.Errorf("invalid vector for entry %s: %v", entries[i].ID, err)
		}
		if entries[i].ID == "" {
			return ErrInvalidID
		}
		if r.distanceType == Cosine {
			entries[i].Vector = normalizeVector(entries[i].Vector)
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = time.Now()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	startPos := int(r.index.Ntotal())
	for _, entry := range entries {
		if err := r.index.Add(entry.Vector); err != nil {
			return fmt.Errorf("failed to add vector to index: %v", err)
		}
	}

	for i, entry := range entries {
		r.entries[entry.ID] = entry
		r.idToPosition[entry.ID] = startPos + i
		r.docToEntries[entry.DocumentID] = append(r.docToEntries[entry.DocumentID], entry.ID)
	}
	r.operationCount += len(entries)

	if r.autoSave && r.operationCount >= r.autoSaveCount {
		if err := r.saveIndex(); err != nil {
			return fmt.Errorf("auto-save failed: %v", err)
		}
		r.operationCount = 0
	}
	return nil
}

// Get returns an entry by chunk ID.
func (r *FaissRepository) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.entries[id]
	if !exists {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// Delete removes a single entry. The vector stays in the Faiss index until
// the next rebuild; it just becomes unreachable.
func (r *FaissRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.entries[id]
	if !exists {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	delete(r.idToPosition, id)
	r.removeDocMapping(entry.DocumentID, id)
	r.operationCount++
	return nil
}

// DeleteByDocumentID removes every entry of a document.
func (r *FaissRepository) DeleteByDocumentID(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids, exists := r.docToEntries[documentID]
	if !exists {
		return nil
	}
	for _, id := range ids {
		delete(r.entries, id)
		delete(r.idToPosition, id)
	}
	delete(r.docToEntries, documentID)
	r.operationCount += len(ids)
	return nil
}

// removeDocMapping drops one entry ID from a document's entry list.
// Caller must hold the write lock.
func (r *FaissRepository) removeDocMapping(documentID, id string) {
	ids, ok := r.docToEntries[documentID]
	if !ok {
		return
	}
	updated := make([]string, 0, len(ids)-1)
	for _, existing := range ids {
		if existing != id {
			updated = append(updated, existing)
		}
	}
	if len(updated) == 0 {
		delete(r.docToEntries, documentID)
	} else {
		r.docToEntries[documentID] = updated
	}
}

// Search runs a nearest-neighbor query against the Faiss index.
func (r *FaissRepository) Search(vector []float32, filter SearchFilter) ([]SearchResult, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}
	if r.distanceType == Cosine {
		vector = normalizeVector(vector)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return []SearchResult{}, nil
	}

	k := filter.MaxResults
	if k <= 0 {
		k = 10
	}
	// overshoot to survive filtered-out and deleted positions
	queryLimit := k * 2
	total := int(r.index.Ntotal())
	if queryLimit > total {
		queryLimit = total
	}
	if queryLimit == 0 {
		return []SearchResult{}, nil
	}

	distances, indices, err := r.index.Search(vector, int64(queryLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %v", err)
	}

	positionToID := make(map[int]string, len(r.idToPosition))
	for id, pos := range r.idToPosition {
		positionToID[pos] = id
	}

	var results []SearchResult
	for i := 0; i < len(indices); i++ {
		idx := indices[i]
		if idx < 0 {
			continue
		}
		id, found := positionToID[int(idx)]
		if !found {
			continue
		}
		entry, exists := r.entries[id]
		if !exists {
			continue
		}
		if !matchDocumentIDs(entry, filter.DocumentIDs) {
			continue
		}

		dist := distances[i]
		score := DistanceToScore(dist, r.distanceType)
		if score < filter.MinScore {
			continue
		}
		results = append(results, SearchResult{Entry: entry, Score: score, Distance: dist})
		if len(results) >= k {
			break
		}
	}

	SortSearchResults(results)
	return results, nil
}

// Count returns the number of indexed entries.
func (r *FaissRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

// Dimension returns the vector dimensionality.
func (r *FaissRepository) Dimension() int {
	return r.dimension
}

// Manifest returns the index identity.
func (r *FaissRepository) Manifest() Manifest {
	return r.manifest
}

// Persist flushes the index and metadata to disk.
func (r *FaissRepository) Persist() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveIndex()
}

// Close persists the index when configured to save on close.
func (r *FaissRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveOnClose && r.indexPath != "" {
		if err := r.saveIndex(); err != nil {
			return fmt.Errorf("failed to save index on close: %v", err)
		}
	}
	return nil
}

// saveIndex writes the Faiss index file and its metadata sidecar.
// Caller must hold the write lock.
func (r *FaissRepository) saveIndex() error {
	if r.indexPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.indexPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}
	if err := faiss.WriteIndex(r.index, r.indexPath); err != nil {
		return fmt.Errorf("failed to write index to file: %v", err)
	}
	return r.saveMetadata()
}

// faissMetadata is the on-disk sidecar layout.
type faissMetadata struct {
	Manifest     Manifest            `json:"manifest"`
	Entries      map[string]Entry    `json:"entries"`
	DocToEntries map[string][]string `json:"doc_to_entries"`
	IDToPosition map[string]int      `json:"id_to_position"`
}

// saveMetadata writes the metadata sidecar.
func (r *FaissRepository) saveMetadata() error {
	if r.metaPath == "" {
		return nil
	}
	metadata := faissMetadata{
		Manifest:     r.manifest,
		Entries:      r.entries,
		DocToEntries: r.docToEntries,
		IDToPosition: r.idToPosition,
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %v", err)
	}
	if err := os.WriteFile(r.metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %v", err)
	}
	return nil
}

// loadMetadata restores the sidecar, refusing one built under a different
// identity.
func (r *FaissRepository) loadMetadata(path string) error {
	if path == "" || !fileExists(path) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %v", err)
	}
	var metadata faissMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %v", err)
	}

	if err := metadata.Manifest.Check(r.manifest); err != nil {
		return err
	}

	r.entries = metadata.Entries
	r.docToEntries = metadata.DocToEntries
	r.idToPosition = metadata.IDToPosition
	if r.entries == nil {
		r.entries = make(map[string]Entry)
	}
	if r.docToEntries == nil {
		r.docToEntries = make(map[string][]string)
	}
	if r.idToPosition == nil {
		r.idToPosition = make(map[string]int)
	}
	return nil
}

// fileExists reports whether a path exists.
func init() {
	RegisterRepository("faiss", NewFaissRepository)
}
