package plan

import (
	"encoding/json"
	"regexp"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// ExportFilename derives the download filename for a plan from its title:
// whitespace runs collapse to underscores, the result is lowercased, and a
// "_plan.json" suffix is appended. Punctuation is preserved.
func ExportFilename(title string) string {
	return strings.ToLower(whitespaceRuns.ReplaceAllString(title, "_")) + "_plan.json"
}

// ExportJSON renders a plan as an indented JSON document for download.
func ExportJSON(p *ProjectPlan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
