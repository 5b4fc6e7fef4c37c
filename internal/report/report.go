package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
)

// QuoteGroup is the quotes of one finding grouped under a section label.
type QuoteGroup struct {
	Section string   `json:"section"`
	Quotes  []string `json:"quotes"`
}

// Row is one requirement's finding prepared for presentation.
type Row struct {
	RequirementID   string          `json:"requirement_id"`
	RequirementName string          `json:"requirement_name"`
	Status          models.Status   `json:"status"`
	Confidence      float64         `json:"confidence"`
	Band            string          `json:"band"`
	QuoteGroups     []QuoteGroup    `json:"quote_groups"`
	Gaps            []string        `json:"gaps,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Rationale       string          `json:"rationale,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Summary aggregates a run's findings.
type Summary struct {
	Total                int     `json:"total"`
	Compliant            int     `json:"compliant"`
	NonCompliant         int     `json:"non_compliant"`
	Partial              int     `json:"partial"`
	InsufficientEvidence int     `json:"insufficient_evidence"`
	MeanConfidence       float64 `json:"mean_confidence"`
}

// Build pairs findings with their requirements and prepares presentation
// rows, in the requirement set's declaration order.
func Build(set *standards.Set, findings []models.Finding) []Row {
	byID := make(map[string]models.Finding, len(findings))
	for _, f := range findings {
		byID[f.RequirementID] = f
	}

	rows := make([]Row, 0, len(set.Requirements))
	for _, req := range set.Requirements {
		finding, ok := byID[req.ID]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			RequirementID:   req.ID,
			RequirementName: req.Name,
			Status:          finding.Status,
			Confidence:      finding.Confidence,
			Band:            finding.Band,
			QuoteGroups:     GroupQuotes(finding.Quotes),
			Gaps:            finding.Gaps,
			Recommendations: finding.Recommendations,
			Rationale:       finding.Rationale,
			Error:           finding.Error,
		})
	}
	return rows
}

// Summarize counts findings per status and averages confidence.
func Summarize(findings []models.Finding) Summary {
	s := Summary{Total: len(findings)}
	if len(findings) == 0 {
		return s
	}

	var sum float64
	for _, f := range findings {
		sum += f.Confidence
		switch f.Status {
		case models.StatusCompliant:
			s.Compliant++
		case models.StatusNonCompliant:
			s.NonCompliant++
		case models.StatusPartial:
			s.Partial++
		case models.StatusInsufficientEvidence:
			s.InsufficientEvidence++
		}
	}
	s.MeanConfidence = sum / float64(len(findings))
	return s
}

// GroupQuotes buckets quotes by section label and orders the groups
// numerically, so "Section 6.7" precedes "Section 10.2" and unlabeled
// quotes sink to the end.
func GroupQuotes(quotes []models.Quote) []QuoteGroup {
	if len(quotes) == 0 {
		return []QuoteGroup{}
	}

	order := make([]string, 0)
	grouped := make(map[string][]string)
	seenText := make(map[string]map[string]bool)
	for _, q := range quotes {
		label := q.Section
		if label == "" {
			label = "Unlabeled"
		}
		if _, seen := grouped[label]; !seen {
			order = append(order, label)
			seenText[label] = make(map[string]bool)
		}
		// overlapping chunks can cite the same text twice
		if seenText[label][q.Text] {
			continue
		}
		seenText[label][q.Text] = true
		grouped[label] = append(grouped[label], q.Text)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessSectionLabel(order[i], order[j])
	})

	groups := make([]QuoteGroup, 0, len(order))
	for _, label := range order {
		groups = append(groups, QuoteGroup{Section: label, Quotes: grouped[label]})
	}
	return groups
}

var sectionNumberRe = regexp.MustCompile(`(\d+(?:\.\d+)*)`)

// lessSectionLabel compares labels by their numeric components, falling
// back to plain string order. Labels without numbers sort last.
func lessSectionLabel(a, b string) bool {
	aParts, aOK := sectionNumbers(a)
	bParts, bOK := sectionNumbers(b)

	switch {
	case aOK && !bOK:
		return true
	case !aOK && bOK:
		return false
	case !aOK && !bOK:
		return a < b
	}

	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			return aParts[i] < bParts[i]
		}
	}
	if len(aParts) != len(bParts) {
		return len(aParts) < len(bParts)
	}
	return a < b
}

// sectionNumbers extracts the dotted numeric key of a section label.
func sectionNumbers(label string) ([]int, bool) {
	m := sectionNumberRe.FindString(label)
	if m == "" {
		return nil, false
	}
	parts := strings.Split(m, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
