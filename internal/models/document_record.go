package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentStatus is the indexing state of an uploaded contract.
type DocumentStatus string

const (
	// DocStatusUploaded - text stored, not yet chunked or embedded
	DocStatusUploaded DocumentStatus = "uploaded"
	// DocStatusIndexing - chunking and embedding in progress
	DocStatusIndexing DocumentStatus = "indexing"
	// DocStatusIndexed - vectors are in the index, document is queryable
	DocStatusIndexed DocumentStatus = "indexed"
	// DocStatusFailed - indexing aborted, see Error
	DocStatusFailed DocumentStatus = "failed"
)

// DocumentRecord is the persisted metadata of one uploaded contract.
// The contract text itself lives in blob storage under StoragePath.
type DocumentRecord struct {
	ID          string         `gorm:"primaryKey"`
	Name        string         `gorm:"not null"`
	StoragePath string         `gorm:"not null"`
	Status      DocumentStatus `gorm:"not null;index"`
	ChunkCount  int            `gorm:"not null;default:0"`
	Boundaries  datatypes.JSON `gorm:"type:json"` // []document.SectionBoundary
	UploadedAt  time.Time      `gorm:"not null;index"`
	IndexedAt   *time.Time
	Error       string `gorm:"type:text"`
}
