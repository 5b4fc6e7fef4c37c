package standards

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// Set is a named collection of compliance requirements, typically one
// regulatory standard or an internal policy checklist.
type Set struct {
	Name         string               `json:"name" validate:"required"`
	Version      string               `json:"version"`
	Requirements []models.Requirement `json:"requirements" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Load reads and validates a requirement set from a JSON file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirement set: %w", err)
	}
	return Parse(data)
}

// Parse validates a requirement set from raw JSON.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("requirement set is not valid JSON: %w", err)
	}

	if err := validate.Struct(&set); err != nil {
		return nil, fmt.Errorf("requirement set failed validation: %w", err)
	}

	seen := make(map[string]bool, len(set.Requirements))
	for _, req := range set.Requirements {
		if seen[req.ID] {
			return nil, fmt.Errorf("requirement set lists ID %q twice", req.ID)
		}
		seen[req.ID] = true
	}

	return &set, nil
}

// Get returns a requirement by ID.
func (s *Set) Get(id string) (models.Requirement, bool) {
	for _, req := range s.Requirements {
		if req.ID == id {
			return req, true
		}
	}
	return models.Requirement{}, false
}

// IDs returns the requirement IDs in declaration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.Requirements))
	for i, req := range s.Requirements {
		ids[i] = req.ID
	}
	return ids
}
