package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps contract blobs on the local filesystem, one file per
// document ID under the base directory.
type LocalStorage struct {
	basePath string
}

// LocalConfig configures local filesystem storage.
type LocalConfig struct {
	Path string // base directory for blobs
}

// NewLocalStorage creates a local storage instance, creating the base
// directory if needed.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{basePath: absPath}, nil
}

// Save stores a blob under the document ID.
func (s *LocalStorage) Save(documentID string, reader io.Reader) (ObjectInfo, error) {
	if documentID == "" {
		return ObjectInfo{}, errors.New("document ID cannot be empty")
	}

	path := s.objectPath(documentID)
	file, err := os.Create(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	return ObjectInfo{
		Key:  documentID,
		Size: size,
		Path: path,
	}, nil
}

// Get opens the blob stored under the document ID.
func (s *LocalStorage) Get(documentID string) (io.ReadCloser, error) {
	file, err := os.Open(s.objectPath(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return file, nil
}

// Delete removes the blob.
func (s *LocalStorage) Delete(documentID string) error {
	err := os.Remove(s.objectPath(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// Exists reports whether a blob is stored under the document ID.
func (s *LocalStorage) Exists(documentID string) (bool, error) {
	_, err := os.Stat(s.objectPath(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns info for every stored blob.
func (s *LocalStorage) List() ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	var objects []ObjectInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		objects = append(objects, ObjectInfo{
			Key:  strings.TrimSuffix(entry.Name(), ".txt"),
			Size: info.Size(),
			Path: filepath.Join(s.basePath, entry.Name()),
		})
	}
	return objects, nil
}

// objectPath maps a document ID to its file path.
func (s *LocalStorage) objectPath(documentID string) string {
	return filepath.Join(s.basePath, documentID+".txt")
}
