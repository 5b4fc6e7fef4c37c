package document

import (
	"regexp"
	"strings"
)

// Contract heading patterns. Checked in order of specificity: an explicit
// "Section 6.7" beats a bare numbered clause like "6.7.1".
var (
	sectionRe  = regexp.MustCompile(`(?i)\bSection\s+(\d+(?:\.\d+)*)\b`)
	exhibitRe  = regexp.MustCompile(`(?i)\bExhibit\s+([A-Z]\d*|[A-Z])\b`)
	scheduleRe = regexp.MustCompile(`(?i)\bSchedule\s+([A-Z0-9]+)\b`)
	appendixRe = regexp.MustCompile(`(?i)\bAppendix\s+([A-Z0-9]+)\b`)
	plainNumRe = regexp.MustCompile(`(?m)^\s*(\d+(?:\.\d+)+)\s+`)
)

// FindSectionLabel returns a best-effort section label for a span of
// contract text, or "" when no recognizable heading appears in it.
// Used as a fallback when the ingestion boundaries carry no label.
func FindSectionLabel(text string) string {
	if m := sectionRe.FindStringSubmatch(text); m != nil {
		return "Section " + m[1]
	}
	if m := exhibitRe.FindStringSubmatch(text); m != nil {
		return "Exhibit " + strings.ToUpper(m[1])
	}
	if m := scheduleRe.FindStringSubmatch(text); m != nil {
		return "Schedule " + strings.ToUpper(m[1])
	}
	if m := appendixRe.FindStringSubmatch(text); m != nil {
		return "Appendix " + strings.ToUpper(m[1])
	}
	if m := plainNumRe.FindStringSubmatch(text); m != nil {
		return "Section " + m[1]
	}
	return ""
}
