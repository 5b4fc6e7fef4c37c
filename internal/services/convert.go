package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// findingsToRecords converts findings into their persisted form.
func findingsToRecords(runID string, findings []models.Finding) []*models.FindingRecord {
	records := make([]*models.FindingRecord, len(findings))
	for i, f := range findings {
		records[i] = &models.FindingRecord{
			RunID:           runID,
			RequirementID:   f.RequirementID,
			Status:          f.Status,
			Confidence:      f.Confidence,
			Band:            f.Band,
			Quotes:          mustJSON(f.Quotes),
			Coverage:        mustJSON(f.Coverage),
			Gaps:            mustJSON(f.Gaps),
			Recommendations: mustJSON(f.Recommendations),
			Rationale:       f.Rationale,
			Error:           f.Error,
		}
	}
	return records
}

// recordsToFindings restores findings from their persisted form.
func recordsToFindings(records []*models.FindingRecord) ([]models.Finding, error) {
	findings := make([]models.Finding, len(records))
	for i, r := range records {
		f := models.Finding{
			RequirementID: r.RequirementID,
			Status:        r.Status,
			Confidence:    r.Confidence,
			Band:          r.Band,
			Rationale:     r.Rationale,
			Error:         r.Error,
		}
		if err := fromJSON(r.Quotes, &f.Quotes); err != nil {
			return nil, fmt.Errorf("finding %s has corrupt quotes: %w", r.RequirementID, err)
		}
		if err := fromJSON(r.Coverage, &f.Coverage); err != nil {
			return nil, fmt.Errorf("finding %s has corrupt coverage: %w", r.RequirementID, err)
		}
		if err := fromJSON(r.Gaps, &f.Gaps); err != nil {
			return nil, fmt.Errorf("finding %s has corrupt gaps: %w", r.RequirementID, err)
		}
		if err := fromJSON(r.Recommendations, &f.Recommendations); err != nil {
			return nil, fmt.Errorf("finding %s has corrupt recommendations: %w", r.RequirementID, err)
		}
		findings[i] = f
	}
	return findings, nil
}

// mustJSON marshals a value that is known to be encodable.
func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// fromJSON unmarshals a stored JSON column, treating empty as absent.
func fromJSON(data datatypes.JSON, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
