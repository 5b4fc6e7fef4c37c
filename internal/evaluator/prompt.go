package evaluator

import (
	"fmt"
	"strings"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/retriever"
)

// buildPrompt lays out the requirement, its controls and the numbered
// evidence chunks, and pins the exact JSON schema the model must return.
// Chunk order follows retrieval rank so the prompt is stable run to run.
func buildPrompt(req models.Requirement, items []retriever.Evidence) string {
	var b strings.Builder

	b.WriteString("You are a contract compliance analyst. Evaluate whether the contract excerpts below satisfy the requirement.\n\n")

	b.WriteString("Requirement: ")
	b.WriteString(req.Name)
	b.WriteString("\nDescription: ")
	b.WriteString(req.Description)
	b.WriteString("\nControls:\n")
	for _, control := range req.Controls {
		fmt.Fprintf(&b, "- %s\n", control)
	}

	b.WriteString("\nContract excerpts:\n")
	for _, item := range items {
		section := item.Section
		if section == "" {
			section = "unlabeled"
		}
		fmt.Fprintf(&b, "\n[chunk_id: %s | section: %s]\n%s\n", item.ChunkID, section, item.Text)
	}

	b.WriteString(`
Respond with a single JSON object, nothing else:
{
  "status": "compliant" | "non_compliant" | "partial" | "insufficient_evidence",
  "controls": [
    {
      "name": "<exact control name from the list above>",
      "covered": true | false,
      "contradicted": true | false,
      "evidence": [{"chunk_id": "<id>", "quote": "<verbatim excerpt from that chunk>"}]
    }
  ],
  "rationale": "<one paragraph>",
  "gaps": ["<missing items, if any>"],
  "recommendations": ["<suggested remediations, if any>"]
}

Rules:
- Quote only text that appears verbatim in the cited chunk.
- A control without a verbatim quote cannot be marked covered.
- Set contradicted only when an excerpt states the opposite of the control.
- Include every control exactly once.
`)

	return b.String()
}
