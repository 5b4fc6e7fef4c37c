package vectordb

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEntryNotFound = errors.New("index entry not found")
	ErrEmptyVector   = errors.New("empty vector")
	ErrInvalidID     = errors.New("invalid entry ID")
)

// Entry is one indexed chunk: its embedding plus the offsets needed to
// trace any retrieved text back to the source document.
type Entry struct {
	ID         string                 `json:"id"`          // chunk ID, unique within the index
	DocumentID string                 `json:"document_id"` // owning document
	Section    string                 `json:"section"`     // section label, may be empty
	Start      int                    `json:"start"`       // chunk start offset in the document text
	End        int                    `json:"end"`         // chunk end offset (exclusive)
	Text       string                 `json:"text"`        // verbatim chunk text
	Vector     []float32              `json:"vector"`      // embedding vector
	CreatedAt  time.Time              `json:"created_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// DistanceType selects the vector distance metric.
type DistanceType string

const (
	// Cosine similarity over normalized vectors
	Cosine DistanceType = "cosine"
	// DotProduct inner product
	DotProduct DistanceType = "dot"
	// Euclidean L2 distance
	Euclidean DistanceType = "l2"
)

// SearchResult is one nearest-neighbor hit.
type SearchResult struct {
	Entry    Entry   // matched entry
	Score    float32 // similarity score in [0, 1], higher is closer
	Distance float32 // raw metric distance
}

// SearchFilter narrows a similarity search.
type SearchFilter struct {
	DocumentIDs []string // restrict to these documents
	MinScore    float32  // drop results scoring below this
	MaxResults  int      // cap on returned results
}

// DefaultSearchFilter returns the default search parameters.
func DefaultSearchFilter() SearchFilter {
	return SearchFilter{MinScore: 0.0, MaxResults: 10}
}

// Repository is the vector index contract. Implementations must return
// search results in deterministic order: descending score, ties broken by
// ascending entry ID.
type Repository interface {
	// Add indexes a single entry
	Add(entry Entry) error

	// AddBatch indexes entries in order
	AddBatch(entries []Entry) error

	// Get returns the entry for a chunk ID
	Get(id string) (Entry, error)

	// Delete removes a single entry
	Delete(id string) error

	// DeleteByDocumentID removes every entry of a document
	DeleteByDocumentID(documentID string) error

	// Search runs a nearest-neighbor query
	Search(vector []float32, filter SearchFilter) ([]SearchResult, error)

	// Count returns the number of indexed entries
	Count() (int, error)

	// Dimension returns the vector dimensionality
	Dimension() int

	// Manifest returns the identity the index was built under
	Manifest() Manifest

	// Persist flushes the index and its manifest to disk, if backed by a path
	Persist() error

	// Close releases resources, persisting first when configured to
	Close() error
}

// Manifest records the identity of an index: which embedding model produced
// its vectors, at what dimension, under which metric. A persisted index is
// only usable with the exact same identity.
type Manifest struct {
	EmbeddingModel string       `json:"embedding_model"`
	Dimension      int          `json:"dimension"`
	DistanceType   DistanceType `json:"distance_type"`
}

// Check compares a stored manifest against the configured identity and
// returns an IndexConsistencyError on the first mismatch.
func (m Manifest) Check(want Manifest) error {
	if m.EmbeddingModel != want.EmbeddingModel {
		return &IndexConsistencyError{Field: "embedding_model", Want: want.EmbeddingModel, Got: m.EmbeddingModel}
	}
	if m.Dimension != want.Dimension {
		return &IndexConsistencyError{Field: "dimension", Want: fmt.Sprintf("%d", want.Dimension), Got: fmt.Sprintf("%d", m.Dimension)}
	}
	if m.DistanceType != want.DistanceType {
		return &IndexConsistencyError{Field: "distance_type", Want: string(want.DistanceType), Got: string(m.DistanceType)}
	}
	return nil
}

// IndexConsistencyError reports a persisted index whose identity does not
// match the configuration trying to load it. Never silently recovered; the
// index must be rebuilt.
type IndexConsistencyError struct {
	Field string
	Want  string
	Got   string
}

// Error implements the error interface.
func (e *IndexConsistencyError) Error() string {
	return fmt.Sprintf("index consistency error: %s mismatch: index has %q, configuration expects %q", e.Field, e.Got, e.Want)
}

// Config is the vector index configuration.
type Config struct {
	Type              string       // index backend, "memory" or "faiss"
	Path              string       // on-disk index path, empty for ephemeral
	Dimension         int          // vector dimensionality
	DistanceType      DistanceType // distance metric
	EmbeddingModel    string       // model identity recorded in the manifest
	CreateIfNotExists bool         // create a fresh index when the path is missing
	InMemory          bool         // never touch disk even when Path is set
}

// Factory builds a repository from a config.
type Factory func(config Config) (Repository, error)

// RepositoryRegistry holds the registered index backends.
var RepositoryRegistry = map[string]Factory{}

// RegisterRepository registers an index backend factory.
func RegisterRepository(name string, factory Factory) {
	RepositoryRegistry[name] = factory
}

// NewRepository builds the configured index backend.
func NewRepository(config Config) (Repository, error) {
	factory, ok := RepositoryRegistry[config.Type]
	if !ok {
		factory = NewMemoryRepository
	}
	return factory(config)
}
