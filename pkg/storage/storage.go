package storage

import (
	"errors"
	"io"
)

// ErrObjectNotFound - no blob stored under the given key
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored contract blob.
type ObjectInfo struct {
	Key  string // storage key, derived from the document ID
	Size int64  // blob size in bytes
	Path string // implementation-specific location
}

// Storage stores contract text blobs keyed by document ID. The database
// keeps only metadata; the full text always round-trips through here.
type Storage interface {
	// Save stores a blob under the document ID and returns its info
	Save(documentID string, reader io.Reader) (ObjectInfo, error)

	// Get opens the blob stored under the document ID
	Get(documentID string) (io.ReadCloser, error)

	// Delete removes the blob
	Delete(documentID string) error

	// Exists reports whether a blob is stored under the document ID
	Exists(documentID string) (bool, error)

	// List returns info for every stored blob
	List() ([]ObjectInfo, error)
}
