// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"strings"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// oecdCitation is the label attached when generated content references
// the OECD guidelines.
const oecdCitation = "OECD Transfer Pricing Guidelines"

// ExtractCitations scans generated content for known regulatory marker
// substrings and returns the matching citation labels. Matching is
// best-effort substring detection, not semantic analysis: "OECD" maps
// to the OECD guideline label, and "Rule 10" or "CBDT" map to the
// company jurisdiction's transfer-pricing regulations.
func ExtractCitations(content string, jurisdiction types.Jurisdiction) []string {
	var citations []string
	if strings.Contains(content, "OECD") {
		citations = append(citations, oecdCitation)
	}
	if strings.Contains(content, "Rule 10") || strings.Contains(content, "CBDT") {
		citations = append(citations, string(jurisdiction)+" Transfer Pricing Regulations")
	}
	return citations
}
