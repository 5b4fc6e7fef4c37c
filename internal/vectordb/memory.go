package vectordb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// MemoryRepository is a pure-Go vector index. It serves development, tests
// and small corpora; snapshots are JSON files next to the manifest.
type MemoryRepository struct {
	mu           sync.RWMutex
	entries      map[string]Entry
	docToEntries map[string][]string
	dimension    int
	distType     DistanceType
	manifest     Manifest
	path         string
	saveOnClose  bool
}

// memorySnapshot is the on-disk layout of a memory index.
type memorySnapshot struct {
	Manifest Manifest         `json:"manifest"`
	Entries  map[string]Entry `json:"entries"`
}

// NewMemoryRepository creates an in-memory vector index. When the config
// names an existing snapshot path, the snapshot is loaded and its manifest
// checked against the configured identity; a mismatch is an
// IndexConsistencyError.
func NewMemoryRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	distType := config.DistanceType
	if distType != Cosine && distType != DotProduct && distType != Euclidean {
		distType = Cosine
	}

	repo := &MemoryRepository{
		entries:      make(map[string]Entry),
		docToEntries: make(map[string][]string),
		dimension:    config.Dimension,
		distType:     distType,
		manifest: Manifest{
			EmbeddingModel: config.EmbeddingModel,
			Dimension:      config.Dimension,
			DistanceType:   distType,
		},
		path:        config.Path,
		saveOnClose: config.Path != "" && !config.InMemory,
	}

	if repo.saveOnClose && fileExists(config.Path) {
		if err := repo.load(config.Path); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

// Add indexes a single entry.
func (r *MemoryRepository) Add(entry Entry) error {
	if err := ValidateVector(entry.Vector, r.dimension); err != nil {
		return err
	}
	if entry.ID == "" {
		return ErrInvalidID
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if r.distType == Cosine {
		entry.Vector = normalizeVector(entry.Vector)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.ID]; !exists {
		r.docToEntries[entry.DocumentID] = append(r.docToEntries[entry.DocumentID], entry.ID)
	}
	r.entries[entry.ID] = entry

	return nil
}

// AddBatch indexes entries in order under a single lock.
func (r *MemoryRepository) AddBatch(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range entries {
		entry := entries[i]

		if err := ValidateVector(entry.Vector, r.dimension); err != nil {
			return fmt.Errorf("invalid vector for entry %s: %v", entry.ID, err)
		}
		if entry.ID == "" {
			return ErrInvalidID
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		if r.distType == Cosine {
			entry.Vector = normalizeVector(entry.Vector)
		}

		if _, exists := r.entries[entry.ID]; !exists {
			r.docToEntries[entry.DocumentID] = append(r.docToEntries[entry.DocumentID], entry.ID)
		}
		r.entries[entry.ID] = entry
	}

	return nil
}

// Get returns an entry by chunk ID.
func (r *MemoryRepository) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return Entry{}, ErrEntryNotFound
	}

	return entry, nil
}

// Delete removes a single entry.
func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return ErrEntryNotFound
	}

	delete(r.entries, id)
	r.removeDocMapping(entry.DocumentID, id)

	return nil
}

// DeleteByDocumentID removes every entry of a document.
func (r *MemoryRepository) DeleteByDocumentID(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, exists := r.docToEntries[documentID]
	if !exists {
		return nil
	}

	for _, id := range ids {
		delete(r.entries, id)
	}
	delete(r.docToEntries, documentID)

	return nil
}

// removeDocMapping drops one entry ID from a document's entry list.
// Caller must hold the write lock.
func (r *MemoryRepository) removeDocMapping(documentID, id string) {
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

// Search runs an exact nearest-neighbor scan. Large corpora are scanned in
// parallel; the final sort keeps the result order deterministic either way.
func (r *MemoryRepository) Search(vector []float32, filter SearchFilter) ([]SearchResult, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}
	if r.distType == Cosine {
		vector = normalizeVector(vector)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Entry
	if len(filter.DocumentIDs) > 0 {
		for _, docID := range filter.DocumentIDs {
			for _, id := range r.docToEntries[docID] {
				if entry, exists := r.entries[id]; exists {
					candidates = append(candidates, entry)
				}
			}
		}
	} else {
		candidates = make([]Entry, 0, len(r.entries))
		for _, entry := range r.entries {
			candidates = append(candidates, entry)
		}
	}

	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	threads := runtime.NumCPU()
	if len(candidates) < 256 || threads <= 1 {
		return r.scoreAndRank(vector, candidates, filter)
	}
	return r.parallelScoreAndRank(vector, candidates, filter, threads)
}

// scoreAndRank computes distances serially and returns the ranked results.
func (r *MemoryRepository) scoreAndRank(vector []float32, candidates []Entry, filter SearchFilter) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(candidates))

	for _, entry := range candidates {
		dist, err := ComputeDistance(vector, entry.Vector, r.distType)
		if err != nil {
			return nil, fmt.Errorf("error computing distance for entry %s: %v", entry.ID, err)
		}

		score := DistanceToScore(dist, r.distType)
		if score >= filter.MinScore {
			results = append(results, SearchResult{Entry: entry, Score: score, Distance: dist})
		}
	}

	SortSearchResults(results)

	if filter.MaxResults > 0 && len(results) > filter.MaxResults {
		results = results[:filter.MaxResults]
	}

	return results, nil
}

// parallelScoreAndRank shards the candidate list across workers.
func (r *MemoryRepository) parallelScoreAndRank(vector []float32, candidates []Entry, filter SearchFilter, threads int) ([]SearchResult, error) {
	perThread := (len(candidates) + threads - 1) / threads

	resultsChan := make(chan []SearchResult, threads)
	errorsChan := make(chan error, threads)
	launched := 0

	for i := 0; i < threads; i++ {
		start := i * perThread
		end := start + perThread
		if end > len(candidates) {
			end = len(candidates)
		}
		if start >= end {
			continue
		}
		launched++

		go func(shard []Entry) {
			partial := make([]SearchResult, 0, len(shard))
			for _, entry := range shard {
				dist, err := ComputeDistance(vector, entry.Vector, r.distType)
				if err != nil {
					errorsChan <- fmt.Errorf("error computing distance for entry %s: %v", entry.ID, err)
					return
				}
				score := DistanceToScore(dist, r.distType)
				if score >= filter.MinScore {
					partial = append(partial, SearchResult{Entry: entry, Score: score, Distance: dist})
				}
			}
			resultsChan <- partial
		}(candidates[start:end])
	}

	var results []SearchResult
	for i := 0; i < launched; i++ {
		select {
		case err := <-errorsChan:
			return nil, err
		case partial := <-resultsChan:
			results = append(results, partial...)
		}
	}

	SortSearchResults(results)

	if filter.MaxResults > 0 && len(results) > filter.MaxResults {
		results = results[:filter.MaxResults]
	}

	return results, nil
}

// Count returns the number of indexed entries.
func (r *MemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries), nil
}

// Dimension returns the vector dimensionality.
func (r *MemoryRepository) Dimension() int {
	return r.dimension
}

// Manifest returns the index identity.
func (r *MemoryRepository) Manifest() Manifest {
	return r.manifest
}

// Persist writes a JSON snapshot of the index and its manifest.
func (r *MemoryRepository) Persist() error {
	if r.path == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	snapshot := memorySnapshot{Manifest: r.manifest, Entries: r.entries}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal index snapshot: %v", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index snapshot: %v", err)
	}

	return nil
}

// load restores a snapshot, refusing one built under a different identity.
func (r *MemoryRepository) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read index snapshot: %v", err)
	}

	var snapshot memorySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal index snapshot: %v", err)
	}

	if err := snapshot.Manifest.Check(r.manifest); err != nil {
		return err
	}

	r.entries = snapshot.Entries
	if r.entries == nil {
		r.entries = make(map[string]Entry)
	}
	r.docToEntries = make(map[string][]string)
	for id, entry := range r.entries {
		r.docToEntries[entry.DocumentID] = append(r.docToEntries[entry.DocumentID], id)
	}

	return nil
}

// Close persists the snapshot when backed by a path.
func (r *MemoryRepository) Close() error {
	if r.saveOnClose {
		return r.Persist()
	}
	return nil
}

func init() {
	RegisterRepository("memory", NewMemoryRepository)
}
