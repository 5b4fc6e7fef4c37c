package models

import (
	"time"

	"gorm.io/datatypes"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	// RunStatusRunning - requirements are still being evaluated
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted - every requirement produced a finding
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial - the run finished but some requirements failed
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed - the run aborted before producing findings
	RunStatusFailed RunStatus = "failed"
)

// AnalysisRun is the persisted record of one compliance run over a document.
type AnalysisRun struct {
	ID           string    `gorm:"primaryKey"`     // run ID
	DocumentID   string    `gorm:"not null;index"` // analyzed document
	Status       RunStatus `gorm:"not null;index"`
	Requirements int       `gorm:"not null"` // number of requirements checked
	Failed       int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;index"`
	CompletedAt  *time.Time
	Error        string `gorm:"type:text"`
}

// FindingRecord is the persisted form of a Finding.
// Records are written once per requirement per run and never updated.
type FindingRecord struct {
	ID              uint           `gorm:"primaryKey;autoIncrement"`
	RunID           string         `gorm:"not null;index"`
	RequirementID   string         `gorm:"not null;index"`
	Status          Status         `gorm:"not null"`
	Confidence      float64        `gorm:"not null"`
	Band            string         `gorm:"size:20"`
	Quotes          datatypes.JSON `gorm:"type:json"` // []Quote
	Coverage        datatypes.JSON `gorm:"type:json"` // CoverageSummary
	Gaps            datatypes.JSON `gorm:"type:json"` // []string
	Recommendations datatypes.JSON `gorm:"type:json"` // []string
	Rationale       string         `gorm:"type:text"`
	Error           string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"not null"`
}
