package models

import "strings"

// Requirement is a single externally supplied compliance requirement.
// Requirements are read-only inputs to retrieval and evaluation.
type Requirement struct {
	ID          string   `json:"id" validate:"required"`          // unique requirement identifier
	Name        string   `json:"name" validate:"required"`        // short human-readable name
	Description string   `json:"description" validate:"required"` // natural-language description
	Controls    []string `json:"controls,omitempty"`              // optional structured constraints
}

// QueryText renders the requirement as the text encoded for retrieval.
// The layout is stable so that repeated runs embed identical queries.
func (r Requirement) QueryText() string {
	var b strings.Builder
	b.WriteString("Requirement: ")
	b.WriteString(r.Name)
	b.WriteString("\nDescription: ")
	b.WriteString(r.Description)
	if len(r.Controls) > 0 {
		b.WriteString("\nControls: ")
		b.WriteString(strings.Join(r.Controls, ", "))
	}
	return b.String()
}

// TokenCount returns the approximate token count of the requirement text,
// used as the complexity denominator for evidence coverage.
func (r Requirement) TokenCount() int {
	n := len(strings.Fields(r.Description))
	for _, c := range r.Controls {
		n += len(strings.Fields(c))
	}
	if n == 0 {
		n = 1
	}
	return n
}
