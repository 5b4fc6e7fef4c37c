package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
)

// verdictPayload is the JSON schema the model must return.
type verdictPayload struct {
	Status          string           `json:"status"`
	Controls        []controlPayload `json:"controls"`
	Rationale       string           `json:"rationale"`
	Gaps            []string         `json:"gaps"`
	Recommendations []string         `json:"recommendations"`
}

type controlPayload struct {
	Name         string         `json:"name"`
	Covered      bool           `json:"covered"`
	Contradicted bool           `json:"contradicted"`
	Evidence     []quotePayload `json:"evidence"`
}

type quotePayload struct {
	ChunkID string `json:"chunk_id"`
	Quote   string `json:"quote"`
}

// verdict is the validated evaluation outcome. Status and coverage are
// recomputed from the control list, never taken from the model's own
// status field.
type verdict struct {
	Status          models.Status
	CoveredRatio    float64
	Contradictions  int
	Quotes          []models.Quote
	Rationale       string
	Gaps            []string
	Recommendations []string
}

// parseVerdict validates a model response against the requirement and the
// evidence it was shown. Every failure is terminal; nothing is coerced.
func parseVerdict(raw string, req models.Requirement, items []retriever.Evidence) (*verdict, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	// the model's own status must at least be a known value
	if _, err := models.ParseStatus(payload.Status); err != nil {
		return nil, fmt.Errorf("response status invalid: %v", err)
	}

	if len(payload.Controls) == 0 {
		return nil, fmt.Errorf("response lists no controls")
	}

	byName := make(map[string]controlPayload, len(payload.Controls))
	for _, control := range payload.Controls {
		name := strings.TrimSpace(control.Name)
		if name == "" {
			return nil, fmt.Errorf("response control has an empty name")
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("response lists control %q twice", name)
		}
		byName[name] = control
	}
	for name := range byName {
		if !containsControl(req.Controls, name) {
			return nil, fmt.Errorf("response names unknown control %q", name)
		}
	}

	chunks := make(map[string]retriever.Evidence, len(items))
	for _, item := range items {
		chunks[item.ChunkID] = item
	}

	result := &verdict{
		Rationale:       strings.TrimSpace(payload.Rationale),
		Gaps:            payload.Gaps,
		Recommendations: payload.Recommendations,
	}

	covered := 0
	// walk the requirement's controls so the outcome order is stable
	for _, name := range req.Controls {
		control, present := byName[name]
		if !present {
			// a control the model skipped is uncovered
			continue
		}

		quotes, err := validateQuotes(control.Evidence, chunks)
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", name, err)
		}

		// coverage claims without verbatim evidence do not count
		if control.Covered && len(quotes) > 0 {
			covered++
			result.Quotes = append(result.Quotes, quotes...)
		}
		if control.Contradicted {
			result.Contradictions++
			// contradicting quotes are still surfaced to the reader
			if !control.Covered {
				result.Quotes = append(result.Quotes, quotes...)
			}
		}
	}

	total := len(req.Controls)
	result.CoveredRatio = float64(covered) / float64(total)
	switch {
	case covered == total:
		result.Status = models.StatusCompliant
	case covered == 0:
		result.Status = models.StatusNonCompliant
	default:
		result.Status = models.StatusPartial
	}

	if result.Quotes == nil {
		result.Quotes = []models.Quote{}
	}
	return result, nil
}

// decodePayload unwraps optional markdown fences and decodes the JSON.
func decodePayload(raw string) (*verdictPayload, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %v", err)
	}
	return &payload, nil
}

// validateQuotes checks that each cited quote names a chunk the model was
// shown and appears verbatim in that chunk's text.
func validateQuotes(cited []quotePayload, chunks map[string]retriever.Evidence) ([]models.Quote, error) {
	quotes := make([]models.Quote, 0, len(cited))

	for _, q := range cited {
		chunk, exists := chunks[q.ChunkID]
		if !exists {
			return nil, fmt.Errorf("quote cites unknown chunk %q", q.ChunkID)
		}

		quote := strings.TrimSpace(q.Quote)
		if quote == "" {
			return nil, fmt.Errorf("quote for chunk %q is empty", q.ChunkID)
		}
		if !strings.Contains(normalizeText(chunk.Text), normalizeText(quote)) {
			return nil, fmt.Errorf("quote is not verbatim in chunk %q", q.ChunkID)
		}

		quotes = append(quotes, models.Quote{
			ChunkID: chunk.ChunkID,
			Section: chunk.Section,
			Text:    quote,
		})
	}

	return quotes, nil
}

// normalizeText lowercases and collapses whitespace. Verbatim checks are
// tolerant of casing and line wrapping, nothing else.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsControl(controls []string, name string) bool {
	for _, c := range controls {
		if c == name {
			return true
		}
	}
	return false
}
